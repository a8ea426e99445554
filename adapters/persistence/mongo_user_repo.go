package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/khoahotran/devconnector/internal/domain/user"
	"github.com/khoahotran/devconnector/pkg/apperror"
)

type userDocument struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	Avatar       string    `bson:"avatar"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"date"`
}

func (d *userDocument) toDomain() (*user.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	return &user.User{
		ID:           id,
		Name:         d.Name,
		Email:        d.Email,
		Avatar:       d.Avatar,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt.UTC(),
	}, nil
}

type mongoUserRepo struct {
	coll *mongo.Collection
}

func NewMongoUserRepo(db *mongo.Database) user.Repository {
	return &mongoUserRepo{coll: db.Collection(usersCollection)}
}

func (r *mongoUserRepo) findOne(ctx context.Context, filter bson.M, identifier string) (*user.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NewNotFound("user", identifier)
		}
		return nil, apperror.NewInternal("error when query user", err)
	}
	u, err := doc.toDomain()
	if err != nil {
		return nil, apperror.NewInternal("corrupt user document", err)
	}
	return u, nil
}

func (r *mongoUserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.findOne(ctx, bson.M{"email": email}, email)
}

func (r *mongoUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()}, id.String())
}

func (r *mongoUserRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*user.User, error) {
	users := make(map[uuid.UUID]*user.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	keys := make(bson.A, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}

	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": keys}})
	if err != nil {
		return nil, apperror.NewInternal("failed to query users", err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var doc userDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, apperror.NewInternal("failed to decode user", err)
		}
		u, err := doc.toDomain()
		if err != nil {
			continue
		}
		users[u.ID] = u
	}
	if err := cur.Err(); err != nil {
		return nil, apperror.NewInternal("error iterating users", err)
	}
	return users, nil
}

func (r *mongoUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()}); err != nil {
		return apperror.NewInternal("failed to delete user", err)
	}
	return nil
}

// InsertMongoUser stores u. Registration lives outside this service.
func InsertMongoUser(ctx context.Context, db *mongo.Database, u *user.User) error {
	doc := userDocument{
		ID:           u.ID.String(),
		Name:         u.Name,
		Email:        u.Email,
		Avatar:       u.Avatar,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
	if _, err := db.Collection(usersCollection).InsertOne(ctx, doc); err != nil {
		return apperror.NewInternal("failed to insert user", err)
	}
	return nil
}
