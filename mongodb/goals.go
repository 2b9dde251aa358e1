package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"expense-tracker/api/models"
	"expense-tracker/api/repository"
)

func (s *Store) InsertGoal(ctx context.Context, g *models.Goal) error {
	g.ID = newID()
	if _, err := s.collection(GoalCollection).InsertOne(ctx, g); err != nil {
		g.ID = ""
		return storeError("error creating goal", err)
	}
	return nil
}

func (s *Store) FindGoals(ctx context.Context, owner string) ([]models.Goal, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := s.collection(GoalCollection).Find(ctx, bson.M{"user": owner}, opts)
	if err != nil {
		return nil, storeError("error fetching goals", err)
	}
	defer cursor.Close(ctx)

	goals := []models.Goal{}
	for cursor.Next(ctx) {
		var goal models.Goal
		if err := cursor.Decode(&goal); err != nil {
			return nil, storeError("error decoding goal", err)
		}
		goals = append(goals, goal)
	}
	if err := cursor.Err(); err != nil {
		return nil, storeError("cursor error", err)
	}
	return goals, nil
}

func (s *Store) FindGoal(ctx context.Context, id, owner string) (*models.Goal, error) {
	var goal models.Goal
	if err := s.collection(GoalCollection).FindOne(ctx, ownedBy(id, owner)).Decode(&goal); err != nil {
		return nil, storeError("error fetching goal", err)
	}
	return &goal, nil
}

func (s *Store) ReplaceGoal(ctx context.Context, g *models.Goal) error {
	result, err := s.collection(GoalCollection).ReplaceOne(ctx, ownedBy(g.ID, g.UserID), g)
	if err != nil {
		return storeError("error replacing goal", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// AddGoalProgress clamps and records the contribution inside one update
// pipeline, so concurrent contributions to a goal never overwrite each other.
func (s *Store) AddGoalProgress(ctx context.Context, id, owner string, delta float64, at time.Time, note string) (*models.Goal, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var goal models.Goal
	err := s.collection(GoalCollection).
		FindOneAndUpdate(ctx, ownedBy(id, owner), progressPipeline(delta, at, note), opts).
		Decode(&goal)
	if err != nil {
		return nil, storeError("error updating goal progress", err)
	}
	return &goal, nil
}

// progressPipeline mirrors models.Goal.ApplyProgress: the new amount is
// current+delta clamped to [0, target], and a non-zero effective change is
// appended to the ledger.
func progressPipeline(delta float64, at time.Time, note string) mongo.Pipeline {
	entry := bson.D{
		{Key: "amount", Value: bson.M{"$abs": "$_effective"}},
		{Key: "type", Value: bson.M{"$cond": bson.A{
			bson.M{"$gt": bson.A{"$_effective", 0}},
			string(models.Deposit),
			string(models.Withdrawal),
		}}},
		{Key: "date", Value: at},
	}
	if note != "" {
		entry = append(entry, bson.E{Key: "note", Value: bson.M{"$literal": note}})
	}
	ledger := bson.M{"$ifNull": bson.A{"$transactions", bson.A{}}}

	return mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"_next": bson.M{"$min": bson.A{
				"$targetAmount",
				bson.M{"$max": bson.A{0, bson.M{"$round": bson.A{bson.M{"$add": bson.A{"$currentAmount", delta}}, 2}}}},
			}},
		}}},
		{{Key: "$set", Value: bson.M{
			"_effective": bson.M{"$round": bson.A{bson.M{"$subtract": bson.A{"$_next", "$currentAmount"}}, 2}},
		}}},
		{{Key: "$set", Value: bson.M{
			"currentAmount": "$_next",
			"updatedAt":     at,
			"transactions": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$_effective", 0}},
				ledger,
				bson.M{"$concatArrays": bson.A{ledger, bson.A{entry}}},
			}},
		}}},
		{{Key: "$unset", Value: bson.A{"_next", "_effective"}}},
	}
}

func (s *Store) DeleteGoal(ctx context.Context, id, owner string) error {
	result, err := s.collection(GoalCollection).DeleteOne(ctx, ownedBy(id, owner))
	if err != nil {
		return storeError("error deleting goal", err)
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
