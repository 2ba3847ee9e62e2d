package main

import (
	"context"
	"net/http"
	"time"

	"blood-donation-backend/pkg/database"
	"blood-donation-backend/pkg/response"

	"go.mongodb.org/mongo-driver/bson"
)

// StockReport is one row of the stock breakdown: a human-readable
// institution label, a rhesus group and the summed stock.
type StockReport struct {
	Institusi  string `bson:"institusi" json:"institusi"`
	Rhesus     string `bson:"rhesus" json:"rhesus"`
	TotalStock int64  `bson:"totalStock" json:"totalStock"`
}

// buildTotalStockPipeline joins Inventory -> Darah -> Partisipan to group
// stock by (institution, donor rhesus), then Institusi -> Users to project
// the institution's display name.
func buildTotalStockPipeline() []bson.M {
	return []bson.M{
		{"$lookup": bson.M{
			"from":         database.ColDarah,
			"localField":   "darah_id",
			"foreignField": "_id",
			"as":           "darah",
		}},
		{"$unwind": "$darah"},
		{"$lookup": bson.M{
			"from":         database.ColPartisipan,
			"localField":   "darah.partisipan_id",
			"foreignField": "_id",
			"as":           "donor",
		}},
		{"$unwind": "$donor"},
		{"$group": bson.M{
			"_id": bson.M{
				"institusi_id": "$institusi_id",
				"rhesus":       bson.M{"$ifNull": bson.A{"$donor.rhesus", ""}},
			},
			"totalStock": bson.M{"$sum": "$stock"},
		}},
		{"$lookup": bson.M{
			"from":         database.ColInstitusi,
			"localField":   "_id.institusi_id",
			"foreignField": "_id",
			"as":           "institusi",
		}},
		{"$unwind": "$institusi"},
		{"$lookup": bson.M{
			"from":         database.ColUsers,
			"localField":   "institusi.user_id",
			"foreignField": "_id",
			"as":           "user",
		}},
		{"$unwind": "$user"},
		{"$project": bson.M{
			"_id":        0,
			"institusi":  "$user.name",
			"rhesus":     "$_id.rhesus",
			"totalStock": 1,
		}},
	}
}

func totalStockByRhesusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	rows, err := runTotalStockByRhesus(ctx)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to get total stock by rhesus", err.Error())
		return
	}

	response.Success(w, http.StatusOK, "Success get total stock by rhesus", rows)
}

func runTotalStockByRhesus(ctx context.Context) ([]StockReport, error) {
	cursor, err := db.Collection(database.ColInventory).Aggregate(ctx, buildTotalStockPipeline())
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	rows := []StockReport{}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
