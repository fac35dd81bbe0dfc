// Package testutil provides test data builders and fakes shared across
// package tests.
package testutil

import (
	"context"
	"crypto/sha256"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/zzpkit/zzpkit/pkg/embedding"
	"github.com/zzpkit/zzpkit/pkg/models"
)

// CreateTestAutomation builds an enabled, schedule-triggered automation
// with sane defaults that can be overridden.
func CreateTestAutomation(overrides ...func(*models.Automation)) *models.Automation {
	now := time.Now().UTC()
	automation := &models.Automation{
		ID:          uuid.New().String(),
		UserID:      "user-1",
		Name:        "Test Automation",
		Category:    models.CategoryInvoice,
		Enabled:     true,
		TriggerType: models.TriggerSchedule,
		TriggerConfig: models.TriggerConfig{
			Schedule: "daily",
			Time:     "09:00",
		},
		Actions: []models.ActionItem{
			{Type: models.ActionSendNotification, Config: map[string]any{"message": "test"}},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, override := range overrides {
		override(automation)
	}

	return automation
}

// CreateTestClient builds a client owned by the given user.
func CreateTestClient(userID string, overrides ...func(*models.Client)) *models.Client {
	now := time.Now().UTC()
	client := &models.Client{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      "Jansen Consultancy",
		Email:     "jan@jansen.nl",
		Company:   "Jansen Consultancy BV",
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, override := range overrides {
		override(client)
	}

	return client
}

// CreateTestInvoice builds a sent invoice for the given user and client.
func CreateTestInvoice(userID, clientID string, overrides ...func(*models.Invoice)) *models.Invoice {
	now := time.Now().UTC()
	invoice := &models.Invoice{
		ID:       uuid.New().String(),
		UserID:   userID,
		ClientID: clientID,
		Number:   "INV-2025-001",
		Status:   models.InvoiceSent,
		Lines: []models.LineItem{
			{Description: "Consultancy", Quantity: 8, Rate: 95, Amount: 760},
		},
		Subtotal:  760,
		TaxRate:   21,
		TaxAmount: 159.6,
		Total:     919.6,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, override := range overrides {
		override(invoice)
	}

	return invoice
}

// FakeEmbedder is a deterministic embedding.Provider for tests. Vectors
// registered via SetVector take precedence; unknown texts hash to a
// stable unit vector so identical text always embeds identically.
type FakeEmbedder struct {
	Dim     int
	vectors map[string][]float32

	// Fail makes every call return an error, for exercising degraded
	// paths.
	Fail error
}

func NewFakeEmbedder(dim int) *FakeEmbedder {
	return &FakeEmbedder{Dim: dim, vectors: make(map[string][]float32)}
}

// SetVector pins the embedding for an exact text.
func (f *FakeEmbedder) SetVector(text string, vector []float32) {
	f.vectors[text] = vector
}

func (f *FakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.Fail != nil {
		return nil, f.Fail
	}

	if text == "" {
		return nil, embedding.ErrEmptyText
	}

	if vector, ok := f.vectors[text]; ok {
		return vector, nil
	}

	return f.hashVector(text), nil
}

func (f *FakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	for i, text := range texts {
		vector, err := f.Embed(ctx, text)
		if err != nil {
			return nil, err
		}

		vectors[i] = vector
	}

	return vectors, nil
}

func (f *FakeEmbedder) hashVector(text string) []float32 {
	sum := sha256.Sum256([]byte(text))
	vector := make([]float32, f.Dim)

	var norm float32

	for i := range vector {
		vector[i] = float32(sum[i%len(sum)]) / 255
		norm += vector[i] * vector[i]
	}

	// Normalize so hash vectors compare on direction only.
	if norm > 0 {
		scale := float32(1 / math.Sqrt(float64(norm)))
		for i := range vector {
			vector[i] *= scale
		}
	}

	return vector
}
