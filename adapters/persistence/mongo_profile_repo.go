package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/khoahotran/devconnector/internal/domain/profile"
	"github.com/khoahotran/devconnector/pkg/apperror"
	"github.com/khoahotran/devconnector/pkg/logger"
)

// profileDocument stores ids as strings next to the inlined profile fields.
type profileDocument struct {
	ID              string `bson:"_id"`
	User            string `bson:"user"`
	profile.Profile `bson:",inline"`
}

func (d *profileDocument) toDomain() (*profile.Profile, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(d.User)
	if err != nil {
		return nil, err
	}
	p := d.Profile
	p.ID = id
	p.UserID = userID
	p.UpdatedAt = p.UpdatedAt.UTC()
	if p.Skills == nil {
		p.Skills = []string{}
	}
	if p.Experience == nil {
		p.Experience = []profile.Experience{}
	}
	if p.Education == nil {
		p.Education = []profile.Education{}
	}
	return &p, nil
}

type mongoProfileRepo struct {
	coll   *mongo.Collection
	logger logger.Logger
}

func NewMongoProfileRepo(db *mongo.Database, logger logger.Logger) profile.Repository {
	return &mongoProfileRepo{coll: db.Collection(profilesCollection), logger: logger}
}

func byUser(userID uuid.UUID) bson.M {
	return bson.M{"user": userID.String()}
}

var returnAfter = options.FindOneAndUpdate().SetReturnDocument(options.After)

func (r *mongoProfileRepo) decodeOne(res *mongo.SingleResult, userID uuid.UUID, action string) (*profile.Profile, error) {
	var doc profileDocument
	if err := res.Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NewNotFound("profile", userID.String())
		}
		return nil, apperror.NewInternal("failed to "+action, err)
	}
	p, err := doc.toDomain()
	if err != nil {
		return nil, apperror.NewInternal("corrupt profile document", err)
	}
	return p, nil
}

func (r *mongoProfileRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*profile.Profile, error) {
	return r.decodeOne(r.coll.FindOne(ctx, byUser(userID)), userID, "query profile")
}

func (r *mongoProfileRepo) List(ctx context.Context) ([]*profile.Profile, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
	if err != nil {
		return nil, apperror.NewInternal("failed to list profiles", err)
	}
	defer cur.Close(ctx)

	profiles := make([]*profile.Profile, 0)
	for cur.Next(ctx) {
		var doc profileDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, apperror.NewInternal("failed to decode profile", err)
		}
		p, err := doc.toDomain()
		if err != nil {
			r.logger.Warn("Skipping corrupt profile document", zap.String("_id", doc.ID), zap.Error(err))
			continue
		}
		profiles = append(profiles, p)
	}
	if err := cur.Err(); err != nil {
		return nil, apperror.NewInternal("error iterating profiles", err)
	}
	return profiles, nil
}

func (r *mongoProfileRepo) Upsert(ctx context.Context, p *profile.Profile) (*profile.Profile, error) {
	update := bson.M{
		"$set": bson.M{
			"company":        p.Company,
			"website":        p.Website,
			"location":       p.Location,
			"status":         p.Status,
			"skills":         p.Skills,
			"bio":            p.Bio,
			"githubusername": p.GithubUsername,
			"social":         p.Social,
			"date":           p.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"_id":        p.ID.String(),
			"experience": nonNil(p.Experience),
			"education":  nonNil(p.Education),
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	res := r.coll.FindOneAndUpdate(ctx, byUser(p.UserID), update, opts)
	// Two concurrent first upserts race on the unique user index; the loser
	// retries as an update.
	if mongo.IsDuplicateKeyError(res.Err()) {
		res = r.coll.FindOneAndUpdate(ctx, byUser(p.UserID), update, opts)
	}
	return r.decodeOne(res, p.UserID, "upsert profile")
}

func (r *mongoProfileRepo) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.coll.DeleteOne(ctx, byUser(userID)); err != nil {
		return apperror.NewInternal("failed to delete profile", err)
	}
	return nil
}

func (r *mongoProfileRepo) AddExperience(ctx context.Context, userID uuid.UUID, e profile.Experience) (*profile.Profile, error) {
	return r.prepend(ctx, userID, "experience", e)
}

func (r *mongoProfileRepo) RemoveExperience(ctx context.Context, userID uuid.UUID, entryID string) (*profile.Profile, error) {
	return r.pull(ctx, userID, "experience", entryID)
}

func (r *mongoProfileRepo) AddEducation(ctx context.Context, userID uuid.UUID, e profile.Education) (*profile.Profile, error) {
	return r.prepend(ctx, userID, "education", e)
}

func (r *mongoProfileRepo) RemoveEducation(ctx context.Context, userID uuid.UUID, entryID string) (*profile.Profile, error) {
	return r.pull(ctx, userID, "education", entryID)
}

func (r *mongoProfileRepo) prepend(ctx context.Context, userID uuid.UUID, field string, entry any) (*profile.Profile, error) {
	update := bson.M{
		"$push": bson.M{field: bson.M{"$each": bson.A{entry}, "$position": 0}},
		"$set":  bson.M{"date": time.Now().UTC()},
	}
	res := r.coll.FindOneAndUpdate(ctx, byUser(userID), update, returnAfter)
	return r.decodeOne(res, userID, "add "+field+" entry")
}

// pull only matches documents holding the entry, so an unknown id leaves the
// profile and its date untouched.
func (r *mongoProfileRepo) pull(ctx context.Context, userID uuid.UUID, field, entryID string) (*profile.Profile, error) {
	filter := bson.M{"user": userID.String(), field + "._id": entryID}
	update := bson.M{
		"$pull": bson.M{field: bson.M{"_id": entryID}},
		"$set":  bson.M{"date": time.Now().UTC()},
	}
	res := r.coll.FindOneAndUpdate(ctx, filter, update, returnAfter)
	if errors.Is(res.Err(), mongo.ErrNoDocuments) {
		return r.GetByUserID(ctx, userID)
	}
	return r.decodeOne(res, userID, "remove "+field+" entry")
}
