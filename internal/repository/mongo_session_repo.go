package repository

import (
	"context"
	"errors"
	"time"

	"bingohall/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSessionRepo stores sessions in a MongoDB collection. Each mutation is
// one UpdateOne whose filter carries the guard, so concurrent handlers can
// never overwrite each other's changes.
type MongoSessionRepo struct {
	collection *mongo.Collection
}

func NewMongoSessionRepo(db *mongo.Database) *MongoSessionRepo {
	return &MongoSessionRepo{
		collection: db.Collection("game_sessions"),
	}
}

// EnsureIndexes creates the lookup index used when matching players to a
// waiting session.
func (r *MongoSessionRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "bidAmount", Value: 1},
			{Key: "createdAt", Value: 1},
		},
	})
	return err
}

func (r *MongoSessionRepo) Create(ctx context.Context, session *model.Session) error {
	_, err := r.collection.InsertOne(ctx, session)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateSession
	}
	return err
}

func (r *MongoSessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoSessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *MongoSessionRepo) FindJoinable(ctx context.Context, bid int, userID string) (*model.Session, error) {
	session, err := r.findOne(ctx, bson.M{
		"status":         bson.M{"$in": rejoinable},
		"bidAmount":      bid,
		"players.userId": userID,
	}, options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil || session != nil {
		return session, err
	}

	return r.findOne(ctx, bson.M{
		"status":    model.SessionWaiting,
		"bidAmount": bid,
	}, options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

func (r *MongoSessionRepo) AddPlayer(ctx context.Context, id, userID string) (bool, error) {
	return r.update(ctx,
		bson.M{
			"_id":            id,
			"status":         model.SessionWaiting,
			"players.userId": bson.M{"$ne": userID},
		},
		bson.M{
			"$push": bson.M{"players": model.SessionPlayer{UserID: userID, Status: model.PlayerNotReady}},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
	)
}

func (r *MongoSessionRepo) MarkReady(ctx context.Context, id, userID string) (bool, error) {
	return r.update(ctx,
		bson.M{
			"_id":            id,
			"status":         bson.M{"$in": reservable},
			"players.userId": userID,
		},
		bson.M{"$set": bson.M{
			"players.$.status": model.PlayerReady,
			"updatedAt":        time.Now(),
		}},
	)
}

func (r *MongoSessionRepo) BeginCountdown(ctx context.Context, id string) (bool, error) {
	return r.update(ctx,
		bson.M{
			"_id":              id,
			"status":           model.SessionWaiting,
			"countdownStarted": false,
			"players.0":        bson.M{"$exists": true},
			"players": bson.M{"$not": bson.M{
				"$elemMatch": bson.M{"status": bson.M{"$ne": model.PlayerReady}},
			}},
		},
		bson.M{"$set": bson.M{
			"status":           model.SessionCountdown,
			"countdownStarted": true,
			"updatedAt":        time.Now(),
		}},
	)
}

func (r *MongoSessionRepo) BeginRound(ctx context.Context, id string, fallback []model.CalledNumber, now time.Time) (*model.Session, error) {
	// Pipeline update so the existing call order is kept in the same write.
	keepOrFallback := bson.D{{Key: "$cond", Value: bson.A{
		bson.D{{Key: "$gt", Value: bson.A{
			bson.D{{Key: "$size", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$shuffledNumbers", bson.A{}}}}}},
			0,
		}}},
		"$shuffledNumbers",
		bson.D{{Key: "$literal", Value: fallback}},
	}}}

	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "status", Value: model.SessionOngoing},
			{Key: "countdownStarted", Value: false},
			{Key: "calledNumbers", Value: bson.D{{Key: "$literal", Value: bson.A{}}}},
			{Key: "startTime", Value: now},
			{Key: "updatedAt", Value: now},
			{Key: "shuffledNumbers", Value: keepOrFallback},
		}}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var session model.Session
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": model.SessionCountdown},
		update,
		opts,
	).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *MongoSessionRepo) AppendCall(ctx context.Context, id string, index int, call model.CalledNumber) (bool, error) {
	return r.update(ctx,
		bson.M{
			"_id":           id,
			"status":        model.SessionOngoing,
			"calledNumbers": bson.M{"$size": index},
		},
		bson.M{
			"$push": bson.M{"calledNumbers": call},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
	)
}

func (r *MongoSessionRepo) Complete(ctx context.Context, id, winner string, card int, now time.Time) (bool, error) {
	return r.update(ctx,
		bson.M{"_id": id, "status": model.SessionOngoing},
		bson.M{"$set": bson.M{
			"status":     model.SessionCompleted,
			"winner":     winner,
			"winnerCard": card,
			"endTime":    now,
			"updatedAt":  now,
		}},
	)
}

func (r *MongoSessionRepo) Recycle(ctx context.Context, id string, from model.SessionStatus, shuffled []model.CalledNumber) (bool, error) {
	return r.update(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{
			"status":               model.SessionWaiting,
			"shuffledNumbers":      shuffled,
			"calledNumbers":        bson.A{},
			"winner":               "",
			"winnerCard":           0,
			"startTime":            nil,
			"endTime":              nil,
			"countdownStarted":     false,
			"players.$[].status":   model.PlayerNotReady,
			"cards.$[].reserved":   false,
			"cards.$[].reservedBy": "",
			"updatedAt":            time.Now(),
		}},
	)
}

func (r *MongoSessionRepo) ReserveCards(ctx context.Context, id, userID string, cards []int) (bool, error) {
	cards = uniqueCards(cards)
	if len(cards) == 0 {
		return false, nil
	}

	guards := make(bson.A, 0, len(cards))
	for _, n := range cards {
		guards = append(guards, bson.M{"cards": bson.M{"$elemMatch": bson.M{
			"number": n,
			"$or": bson.A{
				bson.M{"reserved": false},
				bson.M{"reservedBy": userID},
			},
		}}})
	}

	return r.update(ctx,
		bson.M{
			"_id":    id,
			"status": bson.M{"$in": reservable},
			"$and":   guards,
		},
		bson.M{"$set": bson.M{
			"cards.$[c].reserved":   true,
			"cards.$[c].reservedBy": userID,
			"updatedAt":             time.Now(),
		}},
		cardFilter(cards),
	)
}

func (r *MongoSessionRepo) UnreserveCards(ctx context.Context, id, userID string, cards []int) (bool, error) {
	cards = uniqueCards(cards)
	if len(cards) == 0 {
		return false, nil
	}

	guards := make(bson.A, 0, len(cards))
	for _, n := range cards {
		guards = append(guards, bson.M{"cards": bson.M{"$elemMatch": bson.M{
			"number":     n,
			"reserved":   true,
			"reservedBy": userID,
		}}})
	}

	return r.update(ctx,
		bson.M{"_id": id, "$and": guards},
		bson.M{"$set": bson.M{
			"cards.$[c].reserved":   false,
			"cards.$[c].reservedBy": "",
			"updatedAt":             time.Now(),
		}},
		cardFilter(cards),
	)
}

func cardFilter(cards []int) *options.UpdateOptions {
	return options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"c.number": bson.M{"$in": cards}}},
	})
}

func (r *MongoSessionRepo) update(ctx context.Context, filter, update interface{}, opts ...*options.UpdateOptions) (bool, error) {
	res, err := r.collection.UpdateOne(ctx, filter, update, opts...)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (r *MongoSessionRepo) findOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*model.Session, error) {
	var session model.Session
	err := r.collection.FindOne(ctx, filter, opts...).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func uniqueCards(cards []int) []int {
	seen := make(map[int]bool, len(cards))
	out := make([]int, 0, len(cards))
	for _, n := range cards {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
