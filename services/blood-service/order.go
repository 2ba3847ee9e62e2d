package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"blood-donation-backend/pkg/database"
	"blood-donation-backend/pkg/middleware"
	"blood-donation-backend/pkg/response"
	authmodels "blood-donation-backend/services/auth-service/models"
	"blood-donation-backend/services/blood-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func createOrderHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	claims, ok := middleware.ClaimsFromRequest(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	var input struct {
		InventoryID string     `json:"inventory_id"`
		Volume      int64      `json:"volume"`
		OrderDate   *time.Time `json:"order_date"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	fields := map[string]string{}
	if input.Volume <= 0 {
		fields["volume"] = "Volume must be greater than zero"
	}
	if input.OrderDate == nil {
		fields["order_date"] = "Order date is required"
	}
	inventoryID, err := primitive.ObjectIDFromHex(input.InventoryID)
	if err != nil {
		fields["inventory_id"] = "Invalid inventory reference"
	}
	if len(fields) > 0 {
		response.ValidationError(w, fields)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	partisipanID, err := resolveDonorProfileID(ctx, claims.UserID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			response.Error(w, http.StatusNotFound, "Donor profile not found", "")
		} else {
			response.Error(w, http.StatusInternalServerError, "Failed to resolve donor profile", err.Error())
		}
		return
	}

	var inventory models.Inventory
	err = db.Collection(database.ColInventory).FindOne(ctx, bson.M{"_id": inventoryID}).Decode(&inventory)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			response.Error(w, http.StatusNotFound, "Inventory not found", "")
		} else {
			response.Error(w, http.StatusInternalServerError, "Failed to fetch inventory", err.Error())
		}
		return
	}
	if inventory.Stock < input.Volume {
		response.ValidationError(w, map[string]string{"volume": "Requested volume exceeds available stock"})
		return
	}

	now := time.Now()
	order := models.Order{
		PartisipanID: partisipanID,
		InventoryID:  inventoryID,
		Volume:       input.Volume,
		OrderDate:    *input.OrderDate,
		Status:       models.StatusOrdered,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	res, err := db.Collection(database.ColOrder).InsertOne(ctx, order)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to save order", err.Error())
		return
	}
	order.ID = res.InsertedID.(primitive.ObjectID)

	log.Printf("[OK] Order created - ID: %s, Status: %s", order.ID.Hex(), order.Status)
	response.Success(w, http.StatusCreated, "Success create order", order)
}

// resolveDonorProfileID maps an authenticated user id to its partisipan
// profile id, which is what orders reference.
func resolveDonorProfileID(ctx context.Context, userID string) (primitive.ObjectID, error) {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return primitive.NilObjectID, err
	}

	var profile authmodels.PartisipanProfile
	err = db.Collection(database.ColPartisipan).FindOne(ctx, bson.M{"user_id": objID}).Decode(&profile)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return profile.ID, nil
}

// updateOrderStatusHandler is the only way an order changes state.
// Ordered is the sole legal source; the three targets are terminal.
func updateOrderStatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/order/status/")
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid order ID", err.Error())
		return
	}

	var input struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	if !models.IsValidStatus(input.Status) || input.Status == models.StatusOrdered {
		response.Error(w, http.StatusBadRequest, "Invalid target status", "Status must be one of Accepted, Rejected, Cancelled")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var order models.Order
	err = db.Collection(database.ColOrder).FindOne(ctx, bson.M{"_id": objID}).Decode(&order)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			response.Error(w, http.StatusNotFound, "Order not found", "")
		} else {
			response.Error(w, http.StatusInternalServerError, "Failed to fetch order", err.Error())
		}
		return
	}

	if !models.CanTransition(order.Status, input.Status) {
		response.Error(w, http.StatusConflict, "Invalid status transition",
			"Order is already "+order.Status)
		return
	}

	// Guard the source state in the filter as well, so two racing updates
	// cannot both leave Ordered.
	result, err := db.Collection(database.ColOrder).UpdateOne(ctx,
		bson.M{"_id": objID, "status": models.StatusOrdered},
		bson.M{"$set": bson.M{"status": input.Status, "updated_at": time.Now()}},
	)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to update status", err.Error())
		return
	}
	if result.MatchedCount == 0 {
		response.Error(w, http.StatusConflict, "Invalid status transition", "Order already left the Ordered state")
		return
	}

	// Acceptance claims the stock. The two writes are sequential with no
	// transaction; a failure here leaves an accepted order with unclaimed
	// stock, which is surfaced to the caller.
	if input.Status == models.StatusAccepted {
		claim, err := db.Collection(database.ColInventory).UpdateOne(ctx,
			stockClaimFilter(order), stockClaimUpdate(order))
		if err != nil {
			log.Printf("[ERROR] Order %s accepted but stock not adjusted: %v", order.ID.Hex(), err)
			response.Error(w, http.StatusInternalServerError, "Order accepted but stock adjustment failed", err.Error())
			return
		}
		if claim.MatchedCount == 0 {
			log.Printf("[ERROR] Order %s accepted but stock was insufficient", order.ID.Hex())
			response.Error(w, http.StatusConflict, "Order accepted but stock adjustment failed", "Insufficient stock")
			return
		}
	}

	log.Printf("[OK] Order %s: %s -> %s", order.ID.Hex(), order.Status, input.Status)
	response.Success(w, http.StatusOK, "Order status updated", nil)
}

// stockClaimFilter only matches while the inventory row still holds enough
// stock, so racing acceptances cannot drive it negative.
func stockClaimFilter(order models.Order) bson.M {
	return bson.M{
		"_id":   order.InventoryID,
		"stock": bson.M{"$gte": order.Volume},
	}
}

func stockClaimUpdate(order models.Order) bson.M {
	return bson.M{"$inc": bson.M{"stock": -order.Volume}}
}

func orderAllHandler(w http.ResponseWriter, r *http.Request) {
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
		invIDs, err := resolveInventoryIDsByInstitusiName(ctx, search)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "Failed to resolve institution search", err.Error())
			return
		}
		filter["inventory_id"] = bson.M{"$in": invIDs}
	}

	listOrders(ctx, w, filter, page, limit, "Success get all order")
}

// resolveInventoryIDsByInstitusiName narrows orders to institutions whose
// user name matches: users -> institusi -> inventory, three hops because an
// order only references inventory.
func resolveInventoryIDsByInstitusiName(ctx context.Context, name string) ([]primitive.ObjectID, error) {
	institusiIDs, err := resolveInstitusiIDsByName(ctx, name)
	if err != nil {
		return nil, err
	}

	cursor, err := db.Collection(database.ColInventory).Find(ctx,
		bson.M{"institusi_id": bson.M{"$in": institusiIDs}},
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

func orderByInstitusiHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/order/institusi/")
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

	invCursor, err := db.Collection(database.ColInventory).Find(ctx,
		bson.M{"institusi_id": institusi.ID},
		options.Find().SetProjection(bson.M{"_id": 1}),
	)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to resolve inventory", err.Error())
		return
	}
	defer invCursor.Close(ctx)

	var invDocs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := invCursor.All(ctx, &invDocs); err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to decode inventory", err.Error())
		return
	}
	invIDs := make([]primitive.ObjectID, 0, len(invDocs))
	for _, d := range invDocs {
		invIDs = append(invIDs, d.ID)
	}

	filter := bson.M{"inventory_id": bson.M{"$in": invIDs}}
	if rhesus := r.URL.Query().Get("rhesus"); rhesus != "" {
		ids, err := resolveDonorIDsByRhesus(ctx, rhesus)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "Failed to resolve rhesus filter", err.Error())
			return
		}
		filter["partisipan_id"] = bson.M{"$in": ids}
	}

	listOrders(ctx, w, filter, page, limit, "Success get order for institution")
}

func orderedForDonorHandler(w http.ResponseWriter, r *http.Request) {
	donorScopedOrders(w, r, "/api/order/ordered/", bson.M{"status": models.StatusOrdered}, "Success get ordered orders")
}

func orderHistoryForDonorHandler(w http.ResponseWriter, r *http.Request) {
	donorScopedOrders(w, r, "/api/order/history/", bson.M{"status": bson.M{"$ne": models.StatusOrdered}}, "Success get order history")
}

func donorScopedOrders(w http.ResponseWriter, r *http.Request, prefix string, statusFilter bson.M, message string) {
	if r.Method != http.MethodGet {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, prefix)
	partisipanID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid donor ID", err.Error())
		return
	}

	page, limit := parsePagination(r)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	filter := bson.M{"partisipan_id": partisipanID}
	for k, v := range statusFilter {
		filter[k] = v
	}

	listOrders(ctx, w, filter, page, limit, message)
}

func listOrders(ctx context.Context, w http.ResponseWriter, filter bson.M, page, limit int64, message string) {
	opts := options.Find().
		SetSkip((page - 1) * limit).
		SetLimit(limit).
		SetSort(bson.D{{Key: "order_date", Value: -1}})

	cursor, err := db.Collection(database.ColOrder).Find(ctx, filter, opts)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to fetch orders", err.Error())
		return
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to decode orders", err.Error())
		return
	}

	total, err := db.Collection(database.ColOrder).CountDocuments(ctx, filter)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to count orders", err.Error())
		return
	}

	response.Paginated(w, message, orders, total, page, limit)
}

func orderDetailHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/order/")
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid order ID", err.Error())
		return
	}

	switch r.Method {
	case http.MethodGet:
		getOrder(w, r, objID)
	case http.MethodPatch:
		updateOrder(w, r, objID)
	default:
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed", "")
	}
}

func getOrder(w http.ResponseWriter, r *http.Request, objID primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var order models.Order
	err := db.Collection(database.ColOrder).FindOne(ctx, bson.M{"_id": objID}).Decode(&order)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			response.Error(w, http.StatusNotFound, "Order not found", "")
		} else {
			response.Error(w, http.StatusInternalServerError, "Failed to fetch order", err.Error())
		}
		return
	}

	response.Success(w, http.StatusOK, "Success get one order", order)
}

// updateOrder is the generic field patch. Status is off limits here; the
// state machine only moves through the status endpoint.
func updateOrder(w http.ResponseWriter, r *http.Request, objID primitive.ObjectID) {
	var input struct {
		Volume    *int64     `json:"volume"`
		OrderDate *time.Time `json:"order_date"`
		Status    *string    `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	if input.Status != nil {
		response.ValidationError(w, map[string]string{"status": "Status changes must go through the status endpoint"})
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
	if input.OrderDate != nil {
		set["order_date"] = *input.OrderDate
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	result, err := db.Collection(database.ColOrder).UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": set})
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to update order", err.Error())
		return
	}
	if result.MatchedCount == 0 {
		response.Error(w, http.StatusNotFound, "Order not found", "")
		return
	}

	var order models.Order
	if err := db.Collection(database.ColOrder).FindOne(ctx, bson.M{"_id": objID}).Decode(&order); err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to fetch updated order", err.Error())
		return
	}

	response.Success(w, http.StatusOK, "Success update order", order)
}
