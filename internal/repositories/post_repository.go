package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/socialposts/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostRepository defines the interface for post data operations.
//
// The list mutations are single conditional updates: the filter re-checks the
// invariant the caller already checked, so concurrent requests on the same
// post cannot lose each other's writes.
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	GetAllPosts(ctx context.Context) ([]models.Post, error)
	DeletePost(ctx context.Context, id string) error
	AddLike(ctx context.Context, postID, userID string) ([]models.Like, error)
	RemoveLike(ctx context.Context, postID, userID string) ([]models.Like, error)
	AddComment(ctx context.Context, postID string, comment *models.Comment) ([]models.Comment, error)
	RemoveComment(ctx context.Context, postID, commentID, userID string) ([]models.Comment, error)
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// EnsureIndexes creates the index backing the newest-first listing.
func (r *MongoPostRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "date", Value: -1}},
	})
	return err
}

// CreatePost creates a new post in MongoDB
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	if post.Date.IsZero() {
		post.Date = time.Now().UTC()
	}
	if post.Likes == nil {
		post.Likes = []models.Like{}
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	_, err := r.collection.InsertOne(ctx, post)
	return err
}

// GetPostByID retrieves a post by ID from MongoDB
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	objID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return r.findByObjectID(ctx, objID)
}

// GetAllPosts retrieves every post, newest first.
func (r *MongoPostRepository) GetAllPosts(ctx context.Context) ([]models.Post, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.D{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := make([]models.Post, 0)
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// DeletePost deletes a post by ID from MongoDB
func (r *MongoPostRepository) DeletePost(ctx context.Context, id string) error {
	objID, err := parseID(id)
	if err != nil {
		return err
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}

// AddLike prepends a like by userID unless one already exists.
func (r *MongoPostRepository) AddLike(ctx context.Context, postID, userID string) ([]models.Like, error) {
	objID, err := parseID(postID)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"_id": objID, "likes.user": bson.M{"$ne": userID}}
	update := bson.M{"$push": bson.M{"likes": bson.M{
		"$each":     []models.Like{{UserID: userID}},
		"$position": 0,
	}}}

	post, err := r.findOneAndUpdate(ctx, filter, update)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, r.explainMiss(ctx, objID, ErrAlreadyLiked)
	}
	if err != nil {
		return nil, err
	}
	return post.Likes, nil
}

// RemoveLike removes userID's like.
func (r *MongoPostRepository) RemoveLike(ctx context.Context, postID, userID string) ([]models.Like, error) {
	objID, err := parseID(postID)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"_id": objID, "likes.user": userID}
	update := bson.M{"$pull": bson.M{"likes": bson.M{"user": userID}}}

	post, err := r.findOneAndUpdate(ctx, filter, update)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, r.explainMiss(ctx, objID, ErrNotLiked)
	}
	if err != nil {
		return nil, err
	}
	return post.Likes, nil
}

// AddComment prepends comment, assigning its id.
func (r *MongoPostRepository) AddComment(ctx context.Context, postID string, comment *models.Comment) ([]models.Comment, error) {
	objID, err := parseID(postID)
	if err != nil {
		return nil, err
	}

	comment.ID = primitive.NewObjectID()
	if comment.Date.IsZero() {
		comment.Date = time.Now().UTC()
	}

	update := bson.M{"$push": bson.M{"comments": bson.M{
		"$each":     []*models.Comment{comment},
		"$position": 0,
	}}}

	post, err := r.findOneAndUpdate(ctx, bson.M{"_id": objID}, update)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return post.Comments, nil
}

// RemoveComment removes exactly the comment commentID, provided userID wrote it.
func (r *MongoPostRepository) RemoveComment(ctx context.Context, postID, commentID, userID string) ([]models.Comment, error) {
	objID, err := parseID(postID)
	if err != nil {
		return nil, err
	}
	commentObjID, err := primitive.ObjectIDFromHex(commentID)
	if err != nil {
		return nil, ErrCommentNotFound
	}

	filter := bson.M{
		"_id":      objID,
		"comments": bson.M{"$elemMatch": bson.M{"_id": commentObjID, "user": userID}},
	}
	update := bson.M{"$pull": bson.M{"comments": bson.M{"_id": commentObjID}}}

	post, err := r.findOneAndUpdate(ctx, filter, update)
	if errors.Is(err, mongo.ErrNoDocuments) {
		current, ferr := r.findByObjectID(ctx, objID)
		if ferr != nil {
			return nil, ferr
		}
		if _, ok := current.FindComment(commentID); !ok {
			return nil, ErrCommentNotFound
		}
		return nil, ErrNotCommentAuthor
	}
	if err != nil {
		return nil, err
	}
	return post.Comments, nil
}

func (r *MongoPostRepository) findByObjectID(ctx context.Context, objID primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (r *MongoPostRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*models.Post, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var post models.Post
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&post); err != nil {
		return nil, err
	}
	return &post, nil
}

// explainMiss tells a missing post apart from a failed list guard.
func (r *MongoPostRepository) explainMiss(ctx context.Context, objID primitive.ObjectID, guardErr error) error {
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": objID}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPostNotFound
	}
	return guardErr
}

func parseID(id string) (primitive.ObjectID, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return objID, nil
}
