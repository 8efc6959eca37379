package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"tasklists/internal/task"
)

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 123456789, time.UTC)

	mt.Run("create assigns id and timestamp", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		st := NewMongo(mt.Coll)
		st.now = func() time.Time { return fixed }

		d, err := task.NewDraft(" Buy milk ", " Shopping ")
		require.NoError(mt, err)
		created, err := st.Create(ctx, d)
		require.NoError(mt, err)

		assert.True(mt, primitive.IsValidObjectID(created.ID))
		assert.Equal(mt, "Buy milk", created.Content)
		assert.Equal(mt, task.ListName("Shopping"), created.ListType)
		assert.Equal(mt, fixed.Truncate(time.Millisecond), created.CreatedAt)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "insert", started.CommandName)
	})

	mt.Run("create surfaces write errors", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))
		d, _ := task.NewDraft("a", "b")
		_, err := NewMongo(mt.Coll).Create(ctx, d)
		assert.Error(mt, err)
	})

	mt.Run("find all decodes documents in returned order", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		newer, older := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: newer},
				{Key: "content", Value: "Buy milk"},
				{Key: "listType", Value: "Shopping"},
				{Key: "createdAt", Value: primitive.NewDateTimeFromTime(fixed.Add(time.Minute))},
			},
			bson.D{
				{Key: "_id", Value: older},
				{Key: "content", Value: "Write report"},
				{Key: "listType", Value: " Work "},
				{Key: "createdAt", Value: primitive.NewDateTimeFromTime(fixed)},
			},
		))

		all, err := NewMongo(mt.Coll).FindAll(ctx)
		require.NoError(mt, err)
		require.Len(mt, all, 2)
		assert.Equal(mt, newer.Hex(), all[0].ID)
		assert.Equal(mt, "Buy milk", all[0].Content)
		assert.Equal(mt, task.ListName("Work"), all[1].ListType)
		assert.True(mt, all[0].CreatedAt.After(all[1].CreatedAt))
	})

	mt.Run("find all on empty collection", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		all, err := NewMongo(mt.Coll).FindAll(ctx)
		require.NoError(mt, err)
		assert.Empty(mt, all)
	})

	mt.Run("find all surfaces command errors", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 13, Name: "Unauthorized", Message: "not authorized"}))
		_, err := NewMongo(mt.Coll).FindAll(ctx)
		assert.Error(mt, err)
	})

	mt.Run("delete existing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		err := NewMongo(mt.Coll).Delete(ctx, primitive.NewObjectID().Hex())
		assert.NoError(mt, err)
	})

	mt.Run("delete missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		err := NewMongo(mt.Coll).Delete(ctx, primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("delete malformed id", func(mt *mtest.T) {
		err := NewMongo(mt.Coll).Delete(ctx, "not-an-object-id")
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}
