package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/khoahotran/devconnector/internal/domain/post"
	"github.com/khoahotran/devconnector/pkg/apperror"
)

type postDocument struct {
	ID        string    `bson:"_id"`
	User      string    `bson:"user"`
	Text      string    `bson:"text"`
	Name      string    `bson:"name"`
	Avatar    string    `bson:"avatar"`
	CreatedAt time.Time `bson:"date"`
}

type mongoPostRepo struct {
	coll *mongo.Collection
}

func NewMongoPostRepo(db *mongo.Database) post.Repository {
	return &mongoPostRepo{coll: db.Collection(postsCollection)}
}

func (r *mongoPostRepo) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"user": userID.String()})
	if err != nil {
		return 0, apperror.NewInternal("failed to delete posts", err)
	}
	return res.DeletedCount, nil
}

// InsertMongoPost stores p. Posts are authored elsewhere.
func InsertMongoPost(ctx context.Context, db *mongo.Database, p *post.Post) error {
	doc := postDocument{
		ID:        p.ID.String(),
		User:      p.UserID.String(),
		Text:      p.Text,
		Name:      p.Name,
		Avatar:    p.Avatar,
		CreatedAt: p.CreatedAt,
	}
	if _, err := db.Collection(postsCollection).InsertOne(ctx, doc); err != nil {
		return apperror.NewInternal("failed to insert post", err)
	}
	return nil
}
