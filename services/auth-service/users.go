package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"blood-donation-backend/pkg/database"
	"blood-donation-backend/pkg/middleware"
	"blood-donation-backend/pkg/queue"
	"blood-donation-backend/pkg/response"
	"blood-donation-backend/pkg/security"
	"blood-donation-backend/services/auth-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func addUserHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Role     string `json:"role"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", "")
		return
	}

	if fields := validateAddUser(input.Name, input.Email, input.Phone, input.Role); len(fields) > 0 {
		response.ValidationError(w, fields)
		return
	}

	plaintext := input.Password
	if plaintext == "" {
		generated, err := security.GeneratePassword()
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "Failed to generate password", err.Error())
			return
		}
		plaintext = generated
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	count, err := db.Collection(database.ColUsers).CountDocuments(ctx, bson.M{"email": input.Email})
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to check email", err.Error())
		return
	}
	if count > 0 {
		response.ValidationError(w, map[string]string{"email": "Email already registered"})
		return
	}

	encrypted, err := security.Encrypt(cfg.Secret, plaintext)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to process credentials", err.Error())
		return
	}

	now := time.Now()
	user := models.User{
		Name:     input.Name,
		Phone:    input.Phone,
		Email:    input.Email,
		Password: encrypted,
		Role:     input.Role,
		// Admin-provisioned accounts are pre-verified.
		IsVerify:  true,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	res, err := db.Collection(database.ColUsers).InsertOne(ctx, user)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to save user", err.Error())
		return
	}
	user.ID = res.InsertedID.(primitive.ObjectID)

	if err := cascadeProfile(ctx, user); err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to create role profile", err.Error())
		return
	}

	event := queue.MailEvent{
		To:       user.Email,
		Subject:  "User Registration Successful",
		Template: queue.TemplateAddUser,
		Data: map[string]string{
			"name":     user.Name,
			"email":    user.Email,
			"password": plaintext,
			"role":     user.Role,
		},
	}

	// The record is persisted at this point; a failed publish is reported
	// but nothing is rolled back.
	if err := queue.PublishMessage(amqpChannel, cfg.MailQueue, event); err != nil {
		log.Printf("[ERROR] User created but credentials email not queued: %v", err)
		response.Error(w, http.StatusInternalServerError, "User created but failed to queue credentials email", err.Error())
		return
	}

	log.Printf("[OK] User provisioned - ID: %s, Role: %s", user.ID.Hex(), user.Role)
	response.Success(w, http.StatusCreated, "User added successfully and email queued", user)
}

// cascadeProfile creates the role-profile record matching the user's role.
func cascadeProfile(ctx context.Context, user models.User) error {
	switch user.Role {
	case models.RoleAdmin:
		_, err := db.Collection(database.ColAdmin).InsertOne(ctx, models.AdminProfile{UserID: user.ID})
		return err
	case models.RoleInstitusi:
		_, err := db.Collection(database.ColInstitusi).InsertOne(ctx, models.InstitusiProfile{UserID: user.ID})
		return err
	default:
		_, err := db.Collection(database.ColPartisipan).InsertOne(ctx, models.PartisipanProfile{UserID: user.ID})
		return err
	}
}

// resolveProfile branches on role exactly once and returns the tagged
// variant consumers can use without re-inspecting the role string.
func resolveProfile(ctx context.Context, user models.User) (*models.Profile, error) {
	profile := &models.Profile{Role: user.Role, User: user}

	switch user.Role {
	case models.RolePartisipan:
		var p models.PartisipanProfile
		err := db.Collection(database.ColPartisipan).FindOne(ctx, bson.M{"user_id": user.ID}).Decode(&p)
		if err != nil && err != mongo.ErrNoDocuments {
			return nil, err
		}
		if err == nil {
			profile.Partisipan = &p
		}
	case models.RoleInstitusi:
		var p models.InstitusiProfile
		err := db.Collection(database.ColInstitusi).FindOne(ctx, bson.M{"user_id": user.ID}).Decode(&p)
		if err != nil && err != mongo.ErrNoDocuments {
			return nil, err
		}
		if err == nil {
			profile.Institusi = &p
		}
	case models.RoleAdmin:
		var p models.AdminProfile
		err := db.Collection(database.ColAdmin).FindOne(ctx, bson.M{"user_id": user.ID}).Decode(&p)
		if err != nil && err != mongo.ErrNoDocuments {
			return nil, err
		}
		if err == nil {
			profile.Admin = &p
		}
	}

	return profile, nil
}

func meHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromRequest(r)
	if !ok {
		response.Error(w, http.StatusInternalServerError, "Failed to retrieve user context", "")
		return
	}

	objID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid user ID", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var user models.User
	if err := db.Collection(database.ColUsers).FindOne(ctx, bson.M{"_id": objID}).Decode(&user); err != nil {
		response.Error(w, http.StatusNotFound, "User not found", "")
		return
	}

	profile, err := resolveProfile(ctx, user)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to resolve profile", err.Error())
		return
	}

	response.Success(w, http.StatusOK, "User profile fetched", profile)
}

func profileHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	claims, ok := middleware.ClaimsFromRequest(r)
	if !ok {
		response.Error(w, http.StatusInternalServerError, "Failed to retrieve user context", "")
		return
	}

	var input struct {
		Name         *string `json:"name"`
		Phone        *string `json:"phone"`
		Password     *string `json:"password"`
		Rhesus       *string `json:"rhesus"`
		Domicile     *string `json:"domicile"`
		Address      *string `json:"address"`
		MedicalNotes *string `json:"medical_notes"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", "")
		return
	}

	// Donor-only fields land on the partisipan profile. The role check runs
	// before any write so a forbidden request leaves no side effect.
	donorSet := bson.M{}
	if input.Rhesus != nil {
		donorSet["rhesus"] = *input.Rhesus
	}
	if input.Domicile != nil {
		donorSet["domicile"] = *input.Domicile
	}
	if input.Address != nil {
		donorSet["address"] = *input.Address
	}
	if input.MedicalNotes != nil {
		donorSet["medical_notes"] = *input.MedicalNotes
	}
	if len(donorSet) > 0 && claims.Role != models.RolePartisipan {
		response.Error(w, http.StatusForbidden, "Only donors can update donor profile fields", "")
		return
	}

	userSet := bson.M{"updated_at": time.Now()}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			response.ValidationError(w, map[string]string{"name": "Name must not be empty"})
			return
		}
		userSet["name"] = *input.Name
	}
	if input.Phone != nil {
		userSet["phone"] = *input.Phone
	}
	if input.Password != nil {
		if len(*input.Password) < 8 {
			response.ValidationError(w, map[string]string{"password": "Password must be at least 8 characters"})
			return
		}
		// Password mutations always pass through encryption again.
		encrypted, err := security.Encrypt(cfg.Secret, *input.Password)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "Failed to process credentials", err.Error())
			return
		}
		userSet["password"] = encrypted
	}

	objID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid user ID", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	result, err := db.Collection(database.ColUsers).UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": userSet})
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to update profile", err.Error())
		return
	}
	if result.MatchedCount == 0 {
		response.Error(w, http.StatusNotFound, "User not found", "")
		return
	}

	if len(donorSet) > 0 {
		_, err := db.Collection(database.ColPartisipan).UpdateOne(ctx, bson.M{"user_id": objID}, bson.M{"$set": donorSet})
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "Failed to update donor profile", err.Error())
			return
		}
	}

	var user models.User
	if err := db.Collection(database.ColUsers).FindOne(ctx, bson.M{"_id": objID}).Decode(&user); err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to fetch updated profile", err.Error())
		return
	}

	response.Success(w, http.StatusOK, "Profile updated successfully", user)
}

func usersAllHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	page, limit := parsePagination(r)

	filter := bson.M{}
	if search := r.URL.Query().Get("search"); search != "" {
		filter["name"] = bson.M{"$regex": search, "$options": "i"}
	}
	if role := r.URL.Query().Get("role"); role != "" {
		filter["role"] = role
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	opts := options.Find().
		SetSkip((page - 1) * limit).
		SetLimit(limit).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := db.Collection(database.ColUsers).Find(ctx, filter, opts)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to fetch users", err.Error())
		return
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to decode users", err.Error())
		return
	}

	total, err := db.Collection(database.ColUsers).CountDocuments(ctx, filter)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to count users", err.Error())
		return
	}

	response.Paginated(w, "Success get all users", users, total, page, limit)
}

func userDetailHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/users/")
	if id == "" {
		response.Error(w, http.StatusBadRequest, "Missing user ID", "")
		return
	}

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid user ID", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var user models.User
	err = db.Collection(database.ColUsers).FindOne(ctx, bson.M{"_id": objID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			response.Error(w, http.StatusNotFound, "User not found", "")
		} else {
			response.Error(w, http.StatusInternalServerError, "Failed to fetch user", err.Error())
		}
		return
	}

	response.Success(w, http.StatusOK, "Success get user", user)
}

// parsePagination reads page/limit query params with the usual defaults.
func parsePagination(r *http.Request) (int64, int64) {
	page := int64(1)
	limit := int64(10)

	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			page = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			limit = n
		}
	}

	return page, limit
}
