package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/vitor-labes/catalogue-scraper/internal/domain"
)

type fakeChannel struct {
	published []amqp.Publishing
	keys      []string
	failAt    int
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	if f.failAt > 0 && len(f.published)+1 == f.failAt {
		return errors.New("channel closed")
	}
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error { return nil }

func TestPublisherSave(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{channel: ch, queueName: "catalogue_products"}

	products := []domain.Product{
		{Name: "Toaster", Price: "£30.00", ImageURL: "/toaster.jpg"},
		{Name: "Blender", Price: "£45.00", ImageURL: "/blender.jpg"},
	}
	if err := p.Save(context.Background(), products); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if len(ch.published) != 2 {
		t.Fatalf("published %d messages, want 2", len(ch.published))
	}
	var got domain.Product
	if err := json.Unmarshal(ch.published[1].Body, &got); err != nil {
		t.Fatal(err)
	}
	if got != products[1] {
		t.Errorf("message = %+v, want %+v", got, products[1])
	}
	if ch.keys[0] != "catalogue_products" || ch.published[0].DeliveryMode != amqp.Persistent {
		t.Errorf("unexpected routing %q / delivery mode %d", ch.keys[0], ch.published[0].DeliveryMode)
	}
}

func TestPublisherSaveStopsOnError(t *testing.T) {
	ch := &fakeChannel{failAt: 2}
	p := &Publisher{channel: ch, queueName: "catalogue_products"}

	err := p.Save(context.Background(), []domain.Product{{Name: "A"}, {Name: "B"}, {Name: "C"}})
	if err == nil {
		t.Fatal("Save() error = nil, want error")
	}
	if len(ch.published) != 1 {
		t.Errorf("published %d messages, want 1", len(ch.published))
	}
}

func TestPublisherNotify(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{channel: ch, queueName: "crawl_notifications"}

	if err := p.Notify(context.Background(), "Scraping complete. 3 products scraped."); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if len(ch.published) != 1 || string(ch.published[0].Body) != "Scraping complete. 3 products scraped." {
		t.Errorf("published = %+v", ch.published)
	}
	if ch.published[0].ContentType != "text/plain" {
		t.Errorf("ContentType = %q", ch.published[0].ContentType)
	}
}

func TestConsumerProcessMessage(t *testing.T) {
	var handled []domain.Product
	c := &Consumer{handler: func(_ context.Context, p domain.Product) error {
		handled = append(handled, p)
		return nil
	}}

	body, _ := json.Marshal(domain.Product{Name: "Toaster", Price: "£30.00"})
	if err := c.processMessage(context.Background(), body); err != nil {
		t.Fatalf("processMessage() error = %v", err)
	}
	if len(handled) != 1 || handled[0].Name != "Toaster" {
		t.Errorf("handled = %+v", handled)
	}

	err := c.processMessage(context.Background(), []byte("{not json"))
	if !isDecodeError(err) {
		t.Errorf("processMessage() error = %v, want decode error", err)
	}
}
