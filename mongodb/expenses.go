package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"expense-tracker/api/models"
	"expense-tracker/api/repository"
)

func (s *Store) InsertExpense(ctx context.Context, e *models.Expense) error {
	e.ID = newID()
	if _, err := s.collection(ExpenseCollection).InsertOne(ctx, e); err != nil {
		e.ID = ""
		return storeError("error creating expense", err)
	}
	return nil
}

func expenseFilter(owner string, f models.ExpenseFilter) bson.M {
	filter := bson.M{"user": owner}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.From != nil || f.To != nil {
		date := bson.M{}
		if f.From != nil {
			date["$gte"] = *f.From
		}
		if f.To != nil {
			date["$lte"] = *f.To
		}
		filter["date"] = date
	}
	return filter
}

func (s *Store) FindExpenses(ctx context.Context, owner string, f models.ExpenseFilter) ([]models.Expense, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := s.collection(ExpenseCollection).Find(ctx, expenseFilter(owner, f), opts)
	if err != nil {
		return nil, storeError("error fetching expenses", err)
	}
	defer cursor.Close(ctx)

	expenses := []models.Expense{}
	for cursor.Next(ctx) {
		var expense models.Expense
		if err := cursor.Decode(&expense); err != nil {
			return nil, storeError("error decoding expense", err)
		}
		expenses = append(expenses, expense)
	}
	if err := cursor.Err(); err != nil {
		return nil, storeError("cursor error", err)
	}
	return expenses, nil
}

func (s *Store) FindExpense(ctx context.Context, id, owner string) (*models.Expense, error) {
	var expense models.Expense
	if err := s.collection(ExpenseCollection).FindOne(ctx, ownedBy(id, owner)).Decode(&expense); err != nil {
		return nil, storeError("error fetching expense", err)
	}
	return &expense, nil
}

func (s *Store) ReplaceExpense(ctx context.Context, e *models.Expense) error {
	result, err := s.collection(ExpenseCollection).ReplaceOne(ctx, ownedBy(e.ID, e.UserID), e)
	if err != nil {
		return storeError("error replacing expense", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteExpense(ctx context.Context, id, owner string) error {
	result, err := s.collection(ExpenseCollection).DeleteOne(ctx, ownedBy(id, owner))
	if err != nil {
		return storeError("error deleting expense", err)
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) DueRecurringExpenses(ctx context.Context, now time.Time, limit int) ([]models.Expense, error) {
	filter := bson.M{
		"isRecurring":    true,
		"nextOccurrence": bson.M{"$lte": now},
	}
	opts := options.Find().SetSort(bson.D{{Key: "nextOccurrence", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := s.collection(ExpenseCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, storeError("error fetching due recurring expenses", err)
	}
	defer cursor.Close(ctx)

	var due []models.Expense
	for cursor.Next(ctx) {
		var expense models.Expense
		if err := cursor.Decode(&expense); err != nil {
			return nil, storeError("error decoding expense", err)
		}
		due = append(due, expense)
	}
	if err := cursor.Err(); err != nil {
		return nil, storeError("cursor error", err)
	}
	return due, nil
}

func (s *Store) AdvanceNextOccurrence(ctx context.Context, id, owner string, expected, next time.Time) error {
	filter := ownedBy(id, owner)
	filter["isRecurring"] = true
	filter["nextOccurrence"] = expected

	result, err := s.collection(ExpenseCollection).UpdateOne(ctx, filter, bson.M{
		"$set": bson.M{"nextOccurrence": next},
	})
	if err != nil {
		return storeError("error advancing recurring expense", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
