package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"blood-donation-backend/pkg/database"
	"blood-donation-backend/pkg/response"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VolumeReport is the grouped donation-volume total for one institution.
type VolumeReport struct {
	InstitusiID primitive.ObjectID `bson:"_id" json:"institusi_id"`
	TotalVolume int64              `bson:"totalVolume" json:"totalVolume"`
}

// RhesusVolumeReport is one grouped row of the per-rhesus breakdown.
// Donors without a rhesus set group under the empty string.
type RhesusVolumeReport struct {
	Rhesus      string `bson:"_id" json:"rhesus"`
	TotalVolume int64  `bson:"totalVolume" json:"totalVolume"`
}

func buildVolumeByInstitusiPipeline(institusiID primitive.ObjectID) []bson.M {
	return []bson.M{
		{"$match": bson.M{"institusi_id": institusiID}},
		{"$group": bson.M{
			"_id":         "$institusi_id",
			"totalVolume": bson.M{"$sum": "$volume"},
		}},
	}
}

func buildVolumeByRhesusPipeline(institusiID primitive.ObjectID) []bson.M {
	return []bson.M{
		{"$match": bson.M{"institusi_id": institusiID}},
		{"$lookup": bson.M{
			"from":         database.ColPartisipan,
			"localField":   "partisipan_id",
			"foreignField": "_id",
			"as":           "donor",
		}},
		{"$unwind": "$donor"},
		{"$group": bson.M{
			"_id":         bson.M{"$ifNull": bson.A{"$donor.rhesus", ""}},
			"totalVolume": bson.M{"$sum": "$volume"},
		}},
	}
}

// volumeByInstitusiHandler sums all donation volume held by one
// institution. Zero matching rows is a 404, never an index into an empty
// aggregation result.
func volumeByInstitusiHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/darah/report/volume/")
	institusiID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid institution ID", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	rows, err := runVolumeByInstitusi(ctx, institusiID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to aggregate volume", err.Error())
		return
	}
	if len(rows) == 0 {
		response.Error(w, http.StatusNotFound, "No donations found for institution", "")
		return
	}

	response.Success(w, http.StatusOK, "Success get total volume by institution", rows[0])
}

func runVolumeByInstitusi(ctx context.Context, institusiID primitive.ObjectID) ([]VolumeReport, error) {
	cursor, err := db.Collection(database.ColDarah).Aggregate(ctx, buildVolumeByInstitusiPipeline(institusiID))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []VolumeReport
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// volumeByRhesusHandler breaks one institution's donation volume down by
// donor rhesus.
func volumeByRhesusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/darah/report/rhesus/")
	institusiID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid institution ID", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	cursor, err := db.Collection(database.ColDarah).Aggregate(ctx, buildVolumeByRhesusPipeline(institusiID))
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to aggregate volume by rhesus", err.Error())
		return
	}
	defer cursor.Close(ctx)

	var rows []RhesusVolumeReport
	if err := cursor.All(ctx, &rows); err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to read aggregation", err.Error())
		return
	}
	if len(rows) == 0 {
		response.Error(w, http.StatusNotFound, "No donations found for institution", "")
		return
	}

	response.Success(w, http.StatusOK, "Success get volume by rhesus", rows)
}
