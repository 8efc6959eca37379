package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"tasklists/internal/task"
)

type mongoTask struct {
	ID        primitive.ObjectID `bson:"_id"`
	Content   string             `bson:"content"`
	ListType  string             `bson:"listType"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d mongoTask) toTask() task.Task {
	return task.Task{
		ID:        d.ID.Hex(),
		Content:   d.Content,
		ListType:  task.NewListName(d.ListType),
		CreatedAt: d.CreatedAt.UTC(),
	}
}

// MongoStore keeps one document per task. Ids are ObjectID hex strings.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

// OpenMongo connects to uri, pings the primary and makes sure the
// createdAt index exists.
func OpenMongo(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	s := &MongoStore{client: client, coll: client.Database(database).Collection(collection), now: time.Now}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// NewMongo wraps an existing collection. Close does not disconnect it.
func NewMongo(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll, now: time.Now}
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create createdAt index: %w", err)
	}
	return nil
}

func (s *MongoStore) Create(ctx context.Context, d task.Draft) (task.Task, error) {
	doc := mongoTask{
		ID:       primitive.NewObjectID(),
		Content:  d.Content,
		ListType: d.ListType.String(),
		// BSON dates carry millisecond precision.
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return task.Task{}, err
	}
	return doc.toTask(), nil
}

func (s *MongoStore) FindAll(ctx context.Context) ([]task.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	var docs []mongoTask
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]task.Task, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toTask())
	}
	return out, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(context.Background())
}
