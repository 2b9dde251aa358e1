package mongodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"expense-tracker/api/models"
	"expense-tracker/api/repository"
)

func TestStoreErrorMapping(t *testing.T) {
	assert.NoError(t, storeError("op", nil))
	assert.ErrorIs(t, storeError("op", mongo.ErrNoDocuments), repository.ErrNotFound)
	assert.ErrorIs(t, storeError("op", context.DeadlineExceeded), repository.ErrUnavailable)
	assert.ErrorIs(t, storeError("op", mongo.ErrClientDisconnected), repository.ErrUnavailable)

	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
	assert.ErrorIs(t, storeError("op", dup), repository.ErrDuplicate)

	other := storeError("op", errors.New("boom"))
	assert.NotErrorIs(t, other, repository.ErrUnavailable)
	assert.NotErrorIs(t, other, repository.ErrNotFound)
}

func TestExpenseFilter(t *testing.T) {
	assert.Equal(t, bson.M{"user": "u1"}, expenseFilter("u1", models.ExpenseFilter{}))

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	got := expenseFilter("u1", models.ExpenseFilter{Category: "מזון", From: &from, To: &to})
	assert.Equal(t, bson.M{
		"user":     "u1",
		"category": "מזון",
		"date":     bson.M{"$gte": from, "$lte": to},
	}, got)
}

func TestOwnedBy(t *testing.T) {
	assert.Equal(t, bson.M{"_id": "e1", "user": "u1"}, ownedBy("e1", "u1"))
	assert.Len(t, newID(), 24)
}

func TestProgressPipeline(t *testing.T) {
	at := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	pipeline := progressPipeline(25, at, "$5 from grandma")
	require.Len(t, pipeline, 4)
	assert.Equal(t, "$set", pipeline[0][0].Key)
	assert.Equal(t, "$unset", pipeline[3][0].Key)

	final := pipeline[2][0].Value.(bson.M)
	assert.Equal(t, "$_next", final["currentAmount"])
	assert.Equal(t, at, final["updatedAt"])

	appended := final["transactions"].(bson.M)["$cond"].(bson.A)[2].(bson.M)["$concatArrays"].(bson.A)[1].(bson.A)[0].(bson.D)
	assert.Equal(t, bson.E{Key: "note", Value: bson.M{"$literal": "$5 from grandma"}}, appended[len(appended)-1])

	appended = progressPipeline(25, at, "")[2][0].Value.(bson.M)["transactions"].(bson.M)["$cond"].(bson.A)[2].(bson.M)["$concatArrays"].(bson.A)[1].(bson.A)[0].(bson.D)
	assert.Len(t, appended, 3)
}
