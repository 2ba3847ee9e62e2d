package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"blood-donation-backend/services/blood-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStockClaimGuardsAgainstOverdraw(t *testing.T) {
	order := models.Order{
		InventoryID: primitive.NewObjectID(),
		Volume:      350,
	}

	filter := stockClaimFilter(order)
	assert.Equal(t, order.InventoryID, filter["_id"])
	assert.Equal(t, bson.M{"$gte": int64(350)}, filter["stock"])

	update := stockClaimUpdate(order)
	assert.Equal(t, bson.M{"$inc": bson.M{"stock": int64(-350)}}, update)
}
