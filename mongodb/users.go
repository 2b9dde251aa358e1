package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"expense-tracker/api/models"
	"expense-tracker/api/repository"
)

func (s *Store) InsertUser(ctx context.Context, u *models.User) error {
	u.ID = newID()
	if _, err := s.collection(UserCollection).InsertOne(ctx, u); err != nil {
		u.ID = ""
		return storeError("error creating user", err)
	}
	return nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.collection(UserCollection).FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, storeError("error fetching user by email", err)
	}
	return &user, nil
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.collection(UserCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, storeError("error fetching user", err)
	}
	return &user, nil
}

func (s *Store) ReplaceUser(ctx context.Context, u *models.User) error {
	result, err := s.collection(UserCollection).ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if err != nil {
		return storeError("error replacing user", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
