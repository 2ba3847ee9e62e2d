package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"blood-donation-backend/pkg/config"
	"blood-donation-backend/pkg/database"
	"blood-donation-backend/pkg/middleware"
	"blood-donation-backend/pkg/queue"
	"blood-donation-backend/pkg/response"
	"blood-donation-backend/pkg/security"
	"blood-donation-backend/services/auth-service/models"
	"blood-donation-backend/services/auth-service/utils"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	cfg         *config.Config
	db          *mongo.Database
	amqpChannel *amqp.Channel
)

func main() {
	cfg = config.Load()

	var err error
	db, err = database.ConnectMongo(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("[ERROR] Failed to connect to MongoDB: %v", err)
	}
	if err := database.EnsureIndexes(db); err != nil {
		log.Fatalf("[ERROR] Failed to ensure indexes: %v", err)
	}

	conn, ch, err := queue.ConnectRabbitMQ(cfg.AMQPURI)
	if err != nil {
		log.Fatalf("[ERROR] Failed to connect to RabbitMQ: %v", err)
	}
	defer conn.Close()
	defer ch.Close()
	amqpChannel = ch
	log.Println("[OK] Connected to RabbitMQ")

	middleware.RegisterMetrics()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/register", registerHandler)
	mux.HandleFunc("/api/auth/login", loginHandler)
	mux.HandleFunc("/api/verify-email", verifyEmailHandler)
	mux.HandleFunc("/api/add-user", middleware.Auth(cfg.Secret, middleware.RequireRole(models.RoleAdmin)(addUserHandler)))
	mux.HandleFunc("/api/auth/me", middleware.Auth(cfg.Secret, meHandler))
	mux.HandleFunc("/api/profile", middleware.Auth(cfg.Secret, profileHandler))
	mux.HandleFunc("/api/users/all", usersAllHandler)
	mux.HandleFunc("/api/users/", middleware.Auth(cfg.Secret, middleware.RequireRole(models.RoleAdmin)(userDetailHandler)))
	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/metrics", middleware.GetMetricsHandler())

	handler := middleware.Trace(middleware.Metrics(middleware.Logger(mux)))

	port := os.Getenv("AUTH_PORT")
	if port == "" {
		port = "8081"
	}

	log.Printf("[INFO] Auth Service running on port :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("[ERROR] Server failed: %v", err)
	}
}

func registerHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", "")
		return
	}

	if fields := validateRegister(input.Name, input.Email, input.Phone, input.Password); len(fields) > 0 {
		response.ValidationError(w, fields)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	count, err := db.Collection(database.ColUsers).CountDocuments(ctx, bson.M{"email": input.Email})
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to check email", err.Error())
		return
	}
	if count > 0 {
		log.Printf("[WARN] Registration attempt with existing email")
		response.ValidationError(w, map[string]string{"email": "Email already registered"})
		return
	}

	encrypted, err := security.Encrypt(cfg.Secret, input.Password)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to process registration", err.Error())
		return
	}

	now := time.Now()
	user := models.User{
		Name:      input.Name,
		Phone:     input.Phone,
		Email:     input.Email,
		Password:  encrypted,
		Role:      models.RolePartisipan,
		IsVerify:  false,
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

	// Cascade the donor profile. The two inserts are sequential; a failure
	// here leaves a user without a profile, surfaced to the caller.
	profile := models.PartisipanProfile{UserID: user.ID}
	if _, err := db.Collection(database.ColPartisipan).InsertOne(ctx, profile); err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to create donor profile", err.Error())
		return
	}

	log.Printf("[OK] User registered - ID: %s", user.ID.Hex())

	token, err := utils.GenerateVerifyToken(cfg.Secret, user.ID.Hex())
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to generate verification token", err.Error())
		return
	}

	verifyURL := cfg.BaseURL + "/api/verify-email?token=" + token
	event := queue.MailEvent{
		To:       user.Email,
		Subject:  "Verify your email",
		Template: queue.TemplateVerifyEmail,
		Data: map[string]string{
			"name":      user.Name,
			"verifyUrl": verifyURL,
		},
	}

	// Fire-and-forget: delivery is the mailer's problem, the request does
	// not wait on SMTP.
	if err := queue.PublishMessage(amqpChannel, cfg.MailQueue, event); err != nil {
		log.Printf("[WARN] User registered but failed to queue verification email: %v", err)
	}

	response.Success(w, http.StatusCreated, "User registered successfully. Please verify your email.", user)
}

func loginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", "")
		return
	}

	if input.Email == "" || input.Password == "" {
		response.Error(w, http.StatusBadRequest, "Email and Password are required", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var user models.User
	err := db.Collection(database.ColUsers).FindOne(ctx, bson.M{"email": input.Email}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			response.Error(w, http.StatusNotFound, "User not found", "")
		} else {
			response.Error(w, http.StatusInternalServerError, "Failed to fetch user", err.Error())
		}
		return
	}

	if !user.IsVerify {
		response.Error(w, http.StatusForbidden, "Your account is not verified. Please check your email.", "")
		return
	}

	stored, err := security.Decrypt(cfg.Secret, user.Password)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to read credentials", err.Error())
		return
	}

	if input.Password != stored {
		log.Printf("[WARN] Invalid password attempt")
		response.Error(w, http.StatusUnauthorized, "Email and Password do not match", "")
		return
	}

	token, err := utils.GenerateSessionToken(cfg.Secret, user.ID.Hex(), user.Role, user.IsVerify)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to generate token", err.Error())
		return
	}

	log.Printf("[OK] User logged in - ID: %s, Role: %s", user.ID.Hex(), user.Role)

	response.Success(w, http.StatusOK, "User logged in successfully", map[string]interface{}{
		"token": token,
		"id":    user.ID.Hex(),
		"name":  user.Name,
		"role":  user.Role,
	})
}

func verifyEmailHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		response.Error(w, http.StatusBadRequest, "Verification token is missing", "")
		return
	}

	userID, err := utils.ParseVerifyToken(cfg.Secret, token)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid or expired token", err.Error())
		return
	}

	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid user ID in token", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	result, err := db.Collection(database.ColUsers).UpdateOne(ctx,
		bson.M{"_id": objID},
		bson.M{"$set": bson.M{"is_verify": true, "updated_at": time.Now()}},
	)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to verify email", err.Error())
		return
	}
	if result.MatchedCount == 0 {
		response.Error(w, http.StatusNotFound, "User not found", "")
		return
	}

	response.Success(w, http.StatusOK, "Email verified successfully", nil)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	health := map[string]interface{}{
		"status":  "UP",
		"service": "auth-service",
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := db.Client().Ping(ctx, nil); err != nil {
		health["status"] = "DOWN"
		health["database"] = "disconnected"
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		health["database"] = "connected"
	}

	json.NewEncoder(w).Encode(health)
}
