package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"blood-donation-backend/pkg/database"
	"blood-donation-backend/pkg/response"
	authmodels "blood-donation-backend/services/auth-service/models"
	"blood-donation-backend/services/blood-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// resolveDonorIDsByRhesus pre-resolves the partisipan-id set for a rhesus
// filter. The caller narrows with $in on the result.
func resolveDonorIDsByRhesus(ctx context.Context, rhesus string) ([]primitive.ObjectID, error) {
	cursor, err := db.Collection(database.ColPartisipan).Find(ctx,
		bson.M{"rhesus": rhesus},
		options.Find().SetProjection(bson.M{"_id": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// resolveInstitusiIDsByName does the two-hop lookup: users matching the
// name pattern with the institution role, then the institusi profiles
// referencing those users.
func resolveInstitusiIDsByName(ctx context.Context, name string) ([]primitive.ObjectID, error) {
	userCursor, err := db.Collection(database.ColUsers).Find(ctx,
		bson.M{
			"name": bson.M{"$regex": name, "$options": "i"},
			"role": authmodels.RoleInstitusi,
		},
		options.Find().SetProjection(bson.M{"_id": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer userCursor.Close(ctx)

	var users []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := userCursor.All(ctx, &users); err != nil {
		return nil, err
	}

	userIDs := make([]primitive.ObjectID, 0, len(users))
	for _, u := range users {
		userIDs = append(userIDs, u.ID)
	}

	cursor, err := db.Collection(database.ColInstitusi).Find(ctx,
		bson.M{"user_id": bson.M{"$in": userIDs}},
		options.Find().SetProjection(bson.M{"_id": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var profiles []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

// resolveInstitusiByName fuzzy-matches a single institution. Returns
// mongo.ErrNoDocuments when nothing matches.
func resolveInstitusiByName(ctx context.Context, name string) (*authmodels.InstitusiProfile, error) {
	ids, err := resolveInstitusiIDsByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, mongo.ErrNoDocuments
	}

	var profile authmodels.InstitusiProfile
	err = db.Collection(database.ColInstitusi).FindOne(ctx, bson.M{"_id": ids[0]}).Decode(&profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func createDarahHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	var input struct {
		Volume       int64      `json:"volume"`
		PartisipanID string     `json:"partisipan_id"`
		InstitusiID  string     `json:"institusi_id"`
		DonationDate *time.Time `json:"donation_date"`
		ExpiryDate   *time.Time `json:"expiry_date"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	fields := map[string]string{}
	if input.Volume <= 0 {
		fields["volume"] = "Volume must be greater than zero"
	}
	if input.DonationDate == nil {
		fields["donation_date"] = "Donation date is required"
	}
	partisipanID, err := primitive.ObjectIDFromHex(input.PartisipanID)
	if err != nil {
		fields["partisipan_id"] = "Invalid donor reference"
	}
	institusiID, err := primitive.ObjectIDFromHex(input.InstitusiID)
	if err != nil {
		fields["institusi_id"] = "Invalid institution reference"
	}
	if len(fields) > 0 {
		response.ValidationError(w, fields)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// One active donation per donor: an existing donation that has not
	// expired blocks a new one. This is a business rule, not an index.
	active, err := db.Collection(database.ColDarah).CountDocuments(ctx, bson.M{
		"partisipan_id": partisipanID,
		"$or": []bson.M{
			{"expiry_date": bson.M{"$exists": false}},
			{"expiry_date": nil},
			{"expiry_date": bson.M{"$gt": time.Now()}},
		},
	})
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to check active donations", err.Error())
		return
	}
	if active > 0 {
		response.ValidationError(w, map[string]string{"partisipan_id": "Donor already has an active donation"})
		return
	}

	now := time.Now()
	darah := models.Darah{
		Volume:       input.Volume,
		PartisipanID: partisipanID,
		InstitusiID:  institusiID,
		DonationDate: *input.DonationDate,
		ExpiryDate:   input.ExpiryDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	res, err := db.Collection(database.ColDarah).InsertOne(ctx, darah)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to save darah", err.Error())
		return
	}
	darah.ID = res.InsertedID.(primitive.ObjectID)

	// Stock is derived from the donation. Second sequential write, no
	// transaction: a failure here leaves a donation without stock and is
	// surfaced to the caller.
	inventory := models.Inventory{
		Stock:       darah.Volume,
		InstitusiID: darah.InstitusiID,
		DarahID:     darah.ID,
		OrderDate:   darah.DonationDate,
	}
	if _, err := db.Collection(database.ColInventory).InsertOne(ctx, inventory); err != nil {
		response.Error(w, http.StatusInternalServerError, "Darah saved but stock entry failed", err.Error())
		return
	}

	log.Printf("[OK] Darah recorded - ID: %s, Volume: %d", darah.ID.Hex(), darah.Volume)
	response.Success(w, http.StatusCreated, "Success create darah", darah)
}

func darahAllHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	page, limit := parsePagination(r)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if rhesus := r.URL.Query().Get("rhesus"); rhesus != "" {
		ids, err := resolveDonorIDsByRhesus(ctx, rhesus)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "Failed to resolve rhesus filter", err.Error())
			return
		}
		filter["partisipan_id"] = bson.M{"$in": ids}
	}
	if search := r.URL.Query().Get("search"); search != "" {
		ids, err := resolveInstitusiIDsByName(ctx, search)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "Failed to resolve institution search", err.Error())
			return
		}
		filter["institusi_id"] = bson.M{"$in": ids}
	}

	listDarah(ctx, w, filter, page, limit, "Success get all darah")
}

func darahByInstitusiHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/darah/institusi/")
	if name == "" {
		response.Error(w, http.StatusBadRequest, "Missing institution name", "")
		return
	}

	page, limit := parsePagination(r)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	institusi, err := resolveInstitusiByName(ctx, name)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			response.Error(w, http.StatusNotFound, "Institusi Kesehatan not found", "")
		} else {
			response.Error(w, http.StatusInternalServerError, "Failed to resolve institution", err.Error())
		}
		return
	}

	filter := bson.M{"institusi_id": institusi.ID}
	if rhesus := r.URL.Query().Get("rhesus"); rhesus != "" {
		ids, err := resolveDonorIDsByRhesus(ctx, rhesus)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "Failed to resolve rhesus filter", err.Error())
			return
		}
		filter["partisipan_id"] = bson.M{"$in": ids}
	}

	listDarah(ctx, w, filter, page, limit, "Success get darah for institution")
}

func listDarah(ctx context.Context, w http.ResponseWriter, filter bson.M, page, limit int64, message string) {
	opts := options.Find().
		SetSkip((page - 1) * limit).
		SetLimit(limit).
		SetSort(bson.D{{Key: "donation_date", Value: -1}})

	cursor, err := db.Collection(database.ColDarah).Find(ctx, filter, opts)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to fetch darah", err.Error())
		return
	}
	defer cursor.Close(ctx)

	records := []models.Darah{}
	if err := cursor.All(ctx, &records); err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to decode darah", err.Error())
		return
	}

	total, err := db.Collection(database.ColDarah).CountDocuments(ctx, filter)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to count darah", err.Error())
		return
	}

	response.Paginated(w, message, records, total, page, limit)
}

func getDarahHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/darah/")
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid darah ID", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var darah models.Darah
	err = db.Collection(database.ColDarah).FindOne(ctx, bson.M{"_id": objID}).Decode(&darah)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			response.Error(w, http.StatusNotFound, "Darah not found", "")
		} else {
			response.Error(w, http.StatusInternalServerError, "Failed to fetch darah", err.Error())
		}
		return
	}

	response.Success(w, http.StatusOK, "Success get one darah", darah)
}

func updateDarahHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/darah/")
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid darah ID", err.Error())
		return
	}

	var input struct {
		Volume       *int64     `json:"volume"`
		DonationDate *time.Time `json:"donation_date"`
		ExpiryDate   *time.Time `json:"expiry_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	set := bson.M{"updated_at": time.Now()}
	if input.Volume != nil {
		if *input.Volume <= 0 {
			response.ValidationError(w, map[string]string{"volume": "Volume must be greater than zero"})
			return
		}
		set["volume"] = *input.Volume
	}
	if input.DonationDate != nil {
		set["donation_date"] = *input.DonationDate
	}
	if input.ExpiryDate != nil {
		set["expiry_date"] = *input.ExpiryDate
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	result, err := db.Collection(database.ColDarah).UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": set})
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to update darah", err.Error())
		return
	}
	if result.MatchedCount == 0 {
		response.Error(w, http.StatusNotFound, "Darah not found", "")
		return
	}

	var darah models.Darah
	if err := db.Collection(database.ColDarah).FindOne(ctx, bson.M{"_id": objID}).Decode(&darah); err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to fetch updated darah", err.Error())
		return
	}

	response.Success(w, http.StatusOK, "Success update darah", darah)
}
