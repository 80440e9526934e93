package repository

import (
	"context"
	"fmt"

	"section-store/internal/domain"
	"section-store/internal/infrastructure/repository/entity"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoFavoriteRepository implements FavoriteRepository using MongoDB
type MongoFavoriteRepository struct {
	collection *mongo.Collection
}

// Get retrieves a favorite
func (r *MongoFavoriteRepository) Get(ctx context.Context, shopID, sectionID string) (*domain.Favorite, error) {
	var doc entity.MongoFavoriteDoc
	found, err := findOne(ctx, r.collection, bson.M{"shopId": shopID, "sectionId": sectionID}, &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to get favorite: %w", err)
	}
	if !found {
		return nil, nil
	}
	return doc.ToDomain(), nil
}

// Insert stores a favorite
func (r *MongoFavoriteRepository) Insert(ctx context.Context, favorite *domain.Favorite) error {
	if favorite.ID == "" {
		favorite.ID = uuid.NewString()
	}
	doc := entity.MongoFavoriteDoc{
		ID:        favorite.ID,
		ShopID:    favorite.ShopID,
		SectionID: favorite.SectionID,
		CreatedAt: favorite.CreatedAt,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return writeErr("insert favorite", err)
	}
	return nil
}

// Delete removes a favorite
func (r *MongoFavoriteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	return nil
}

// CountByShop counts a shop's favorites
func (r *MongoFavoriteRepository) CountByShop(ctx context.Context, shopID string) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"shopId": shopID})
	if err != nil {
		return 0, fmt.Errorf("failed to count favorites: %w", err)
	}
	return n, nil
}

// DeleteByShop removes a shop's favorites
func (r *MongoFavoriteRepository) DeleteByShop(ctx context.Context, shopID string) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"shopId": shopID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete favorites: %w", err)
	}
	return result.DeletedCount, nil
}

// MongoBackofficeRepository implements BackofficeRepository using MongoDB
type MongoBackofficeRepository struct {
	tickets  *mongo.Collection
	requests *mongo.Collection
}

// CreateSupportTicket stores a support ticket
func (r *MongoBackofficeRepository) CreateSupportTicket(ctx context.Context, ticket *domain.SupportTicket) error {
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	doc := entity.MongoSupportTicketDoc{
		ID:        ticket.ID,
		ShopID:    ticket.ShopID,
		Subject:   ticket.Subject,
		Message:   ticket.Message,
		Status:    ticket.Status,
		CreatedAt: ticket.CreatedAt,
	}
	if _, err := r.tickets.InsertOne(ctx, doc); err != nil {
		return writeErr("create support ticket", err)
	}
	return nil
}

// CreateFeatureRequest stores a feature request
func (r *MongoBackofficeRepository) CreateFeatureRequest(ctx context.Context, request *domain.FeatureRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	doc := entity.MongoFeatureRequestDoc{
		ID:          request.ID,
		ShopDomain:  request.ShopDomain,
		Title:       request.Title,
		Description: request.Description,
		Votes:       request.Votes,
		CreatedAt:   request.CreatedAt,
	}
	if _, err := r.requests.InsertOne(ctx, doc); err != nil {
		return writeErr("create feature request", err)
	}
	return nil
}

// CountSupportTickets counts a shop's tickets
func (r *MongoBackofficeRepository) CountSupportTickets(ctx context.Context, shopID string) (int64, error) {
	n, err := r.tickets.CountDocuments(ctx, bson.M{"shopId": shopID})
	if err != nil {
		return 0, fmt.Errorf("failed to count support tickets: %w", err)
	}
	return n, nil
}

// DeleteSupportTickets removes a shop's tickets
func (r *MongoBackofficeRepository) DeleteSupportTickets(ctx context.Context, shopID string) (int64, error) {
	result, err := r.tickets.DeleteMany(ctx, bson.M{"shopId": shopID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete support tickets: %w", err)
	}
	return result.DeletedCount, nil
}

// DeleteFeatureRequests removes the requests filed under a shop domain
func (r *MongoBackofficeRepository) DeleteFeatureRequests(ctx context.Context, shopDomain string) (int64, error) {
	result, err := r.requests.DeleteMany(ctx, bson.M{"shopDomain": shopDomain})
	if err != nil {
		return 0, fmt.Errorf("failed to delete feature requests: %w", err)
	}
	return result.DeletedCount, nil
}
