// Package models holds the canonical ticketing records. The backend has
// served every record in two historical shapes (snake_case and camelCase,
// sometimes with renamed fields); each type normalizes here, in one
// UnmarshalJSON step, so nothing downstream branches on field names.
package models

import (
	"encoding/json"
	"time"
)

// Event is a ticketed event with its priced tiers.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Venue       string    `json:"venue"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt"`
	Status      string    `json:"status"`
	ImageURL    string    `json:"imageUrl"`
	Tiers       []Tier    `json:"tiers"`
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          FlexID     `json:"id"`
		Title       string     `json:"title"`
		Name        string     `json:"name"`
		Description string     `json:"description"`
		Venue       string     `json:"venue"`
		Location    string     `json:"location"`
		StartsAt    *time.Time `json:"starts_at"`
		StartsAtC   *time.Time `json:"startsAt"`
		EndsAt      *time.Time `json:"ends_at"`
		EndsAtC     *time.Time `json:"endsAt"`
		Status      string     `json:"status"`
		ImageURL    string     `json:"image_url"`
		ImageURLC   string     `json:"imageUrl"`
		Tiers       []Tier     `json:"tiers"`
		TicketTiers []Tier     `json:"ticket_tiers"`
		TiersC      []Tier     `json:"ticketTiers"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.ID = string(raw.ID)
	e.Title = firstNonEmpty(raw.Title, raw.Name)
	e.Description = raw.Description
	e.Venue = firstNonEmpty(raw.Venue, raw.Location)
	e.StartsAt = firstTime(raw.StartsAt, raw.StartsAtC)
	e.EndsAt = firstTime(raw.EndsAt, raw.EndsAtC)
	e.Status = raw.Status
	e.ImageURL = firstNonEmpty(raw.ImageURL, raw.ImageURLC)
	e.Tiers = raw.Tiers
	if e.Tiers == nil {
		e.Tiers = raw.TicketTiers
	}
	if e.Tiers == nil {
		e.Tiers = raw.TiersC
	}
	return nil
}

// Tier is a priced ticket category within an event with its own inventory.
type Tier struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"priceCents"`
	Quantity   int    `json:"quantity"`
	Sold       int    `json:"sold"`
}

func (t *Tier) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          FlexID `json:"id"`
		Name        string `json:"name"`
		PriceCents  *int64 `json:"price_cents"`
		PriceCentsC *int64 `json:"priceCents"`
		Quantity    *int   `json:"quantity"`
		Inventory   *int   `json:"inventory"`
		Sold        *int   `json:"sold"`
		SoldCount   *int   `json:"sold_count"`
		SoldCountC  *int   `json:"soldCount"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.ID = string(raw.ID)
	t.Name = raw.Name
	t.PriceCents = firstInt64(raw.PriceCents, raw.PriceCentsC)
	t.Quantity = firstInt(raw.Quantity, raw.Inventory)
	t.Sold = firstInt(raw.Sold, raw.SoldCount, raw.SoldCountC)
	return nil
}

// Order is a ticket purchase; CheckedIn reflects door redemption.
type Order struct {
	ID            string     `json:"id"`
	OrderNumber   string     `json:"orderNumber"`
	EventID       string     `json:"eventId"`
	EventTitle    string     `json:"eventTitle"`
	CustomerName  string     `json:"customerName"`
	CustomerEmail string     `json:"customerEmail"`
	Status        string     `json:"status"`
	Quantity      int        `json:"quantity"`
	TotalCents    int64      `json:"totalCents"`
	CheckedIn     bool       `json:"checkedIn"`
	CheckedInAt   *time.Time `json:"checkedInAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

func (o *Order) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID             FlexID     `json:"id"`
		OrderNumber    string     `json:"order_number"`
		OrderNumberC   string     `json:"orderNumber"`
		EventID        FlexID     `json:"event_id"`
		EventIDC       FlexID     `json:"eventId"`
		EventTitle     string     `json:"event_title"`
		EventTitleC    string     `json:"eventTitle"`
		CustomerName   string     `json:"customer_name"`
		CustomerNameC  string     `json:"customerName"`
		CustomerEmail  string     `json:"customer_email"`
		CustomerEmailC string     `json:"customerEmail"`
		Status         string     `json:"status"`
		Quantity       *int       `json:"quantity"`
		TotalCents     *int64     `json:"total_cents"`
		TotalCentsC    *int64     `json:"totalCents"`
		CheckedIn      *bool      `json:"checked_in"`
		CheckedInC     *bool      `json:"checkedIn"`
		CheckedInAt    *time.Time `json:"checked_in_at"`
		CheckedInAtC   *time.Time `json:"checkedInAt"`
		CreatedAt      *time.Time `json:"created_at"`
		CreatedAtC     *time.Time `json:"createdAt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	o.ID = string(raw.ID)
	o.OrderNumber = firstNonEmpty(raw.OrderNumber, raw.OrderNumberC)
	o.EventID = firstNonEmpty(string(raw.EventID), string(raw.EventIDC))
	o.EventTitle = firstNonEmpty(raw.EventTitle, raw.EventTitleC)
	o.CustomerName = firstNonEmpty(raw.CustomerName, raw.CustomerNameC)
	o.CustomerEmail = firstNonEmpty(raw.CustomerEmail, raw.CustomerEmailC)
	o.Status = raw.Status
	o.Quantity = firstInt(raw.Quantity)
	o.TotalCents = firstInt64(raw.TotalCents, raw.TotalCentsC)
	o.CheckedIn = firstBool(raw.CheckedIn, raw.CheckedInC)
	if raw.CheckedInAt != nil {
		o.CheckedInAt = raw.CheckedInAt
	} else {
		o.CheckedInAt = raw.CheckedInAtC
	}
	o.CreatedAt = firstTime(raw.CreatedAt, raw.CreatedAtC)
	return nil
}

// GalleryItem is one curated photo.
type GalleryItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	ImageURL  string `json:"imageUrl"`
	EventID   string `json:"eventId"`
	SortOrder int    `json:"sortOrder"`
}

func (g *GalleryItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID         FlexID `json:"id"`
		Title      string `json:"title"`
		Caption    string `json:"caption"`
		ImageURL   string `json:"image_url"`
		ImageURLC  string `json:"imageUrl"`
		URL        string `json:"url"`
		EventID    FlexID `json:"event_id"`
		EventIDC   FlexID `json:"eventId"`
		SortOrder  *int   `json:"sort_order"`
		SortOrderC *int   `json:"sortOrder"`
		Position   *int   `json:"position"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	g.ID = string(raw.ID)
	g.Title = firstNonEmpty(raw.Title, raw.Caption)
	g.ImageURL = firstNonEmpty(raw.ImageURL, raw.ImageURLC, raw.URL)
	g.EventID = firstNonEmpty(string(raw.EventID), string(raw.EventIDC))
	g.SortOrder = firstInt(raw.SortOrder, raw.SortOrderC, raw.Position)
	return nil
}

// Stats is the dashboard summary.
type Stats struct {
	TotalEvents       int   `json:"totalEvents"`
	TotalOrders       int   `json:"totalOrders"`
	TotalCheckins     int   `json:"totalCheckins"`
	TotalRevenueCents int64 `json:"totalRevenueCents"`
}

func (s *Stats) UnmarshalJSON(data []byte) error {
	var raw struct {
		TotalEvents        *int   `json:"total_events"`
		TotalEventsC       *int   `json:"totalEvents"`
		TotalOrders        *int   `json:"total_orders"`
		TotalOrdersC       *int   `json:"totalOrders"`
		TotalCheckins      *int   `json:"total_checkins"`
		TotalCheckinsC     *int   `json:"totalCheckins"`
		TotalRevenueCents  *int64 `json:"total_revenue_cents"`
		TotalRevenueCentsC *int64 `json:"totalRevenueCents"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.TotalEvents = firstInt(raw.TotalEvents, raw.TotalEventsC)
	s.TotalOrders = firstInt(raw.TotalOrders, raw.TotalOrdersC)
	s.TotalCheckins = firstInt(raw.TotalCheckins, raw.TotalCheckinsC)
	s.TotalRevenueCents = firstInt64(raw.TotalRevenueCents, raw.TotalRevenueCentsC)
	return nil
}

// FlexID tolerates identifiers served as either JSON strings or numbers.
type FlexID string

func (f *FlexID) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*f = FlexID(asString)
		return nil
	}
	var asNumber json.Number
	if err := json.Unmarshal(data, &asNumber); err != nil {
		return err
	}
	*f = FlexID(asNumber.String())
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstInt(values ...*int) int {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}

func firstInt64(values ...*int64) int64 {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}

func firstBool(values ...*bool) bool {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return false
}

func firstTime(values ...*time.Time) time.Time {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return time.Time{}
}
