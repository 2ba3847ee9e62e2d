package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blood-donation-backend/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestVolumeByInstitusiPipeline(t *testing.T) {
	id := primitive.NewObjectID()
	pipeline := buildVolumeByInstitusiPipeline(id)
	require.Len(t, pipeline, 2)

	match, ok := pipeline[0]["$match"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, id, match["institusi_id"])

	group, ok := pipeline[1]["$group"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, "$institusi_id", group["_id"])
	assert.Equal(t, bson.M{"$sum": "$volume"}, group["totalVolume"])
}

func TestVolumeByRhesusPipelineGroupsMissingRhesusAsEmpty(t *testing.T) {
	pipeline := buildVolumeByRhesusPipeline(primitive.NewObjectID())
	require.Len(t, pipeline, 4)

	lookup, ok := pipeline[1]["$lookup"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, database.ColPartisipan, lookup["from"])

	group, ok := pipeline[3]["$group"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, bson.M{"$ifNull": bson.A{"$donor.rhesus", ""}}, group["_id"])
}

func TestTotalStockPipelineShape(t *testing.T) {
	pipeline := buildTotalStockPipeline()
	require.Len(t, pipeline, 10)

	// The join chain walks inventory rows out to the donor before grouping.
	first, ok := pipeline[0]["$lookup"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, database.ColDarah, first["from"])

	group, ok := pipeline[4]["$group"].(bson.M)
	require.True(t, ok)
	groupKey, ok := group["_id"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, "$institusi_id", groupKey["institusi_id"])
	assert.Equal(t, bson.M{"$ifNull": bson.A{"$donor.rhesus", ""}}, groupKey["rhesus"])
	assert.Equal(t, bson.M{"$sum": "$stock"}, group["totalStock"])

	// After the group, two more lookup/unwind pairs walk out to the user
	// record that carries the institution's display name.
	labelLookup, ok := pipeline[7]["$lookup"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, database.ColUsers, labelLookup["from"])

	project, ok := pipeline[9]["$project"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, "$user.name", project["institusi"])
}
