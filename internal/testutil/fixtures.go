package testutil

import (
	"fmt"
	"time"
)

// Customer and Animal mirror a typical API resource with a nested,
// nullable record and nullable scalars.
type Customer struct {
	Name     *string    `json:"name"`
	Tier     *int       `json:"tier"`
	Pet      *Animal    `json:"lovedOne" db:"pet"`
	JoinedAt *time.Time `json:"joinedAt,omitempty" db:"joined_at"`
	Active   bool       `json:"active"`
}

type Animal struct {
	Name   *string `json:"nickname"`
	Age    int     `json:"ageInYears" db:"age"`
	Points *int    `json:"numberOfTimesHugged" db:"points"`
}

// Computer, Mainboard and CPU form a three level nesting for sort tests.
type Computer struct {
	Name      string     `json:"name"`
	Mainboard *Mainboard `json:"mainboard"`
}

type Mainboard struct {
	Name string `json:"name"`
	CPU  *CPU   `json:"cpu"`
}

type CPU struct {
	Name  string `json:"name"`
	Cores int    `json:"cores"`
}

// Item is a flat record used for paging and bulk tests.
type Item struct {
	ID    int     `json:"id"`
	Label string  `json:"label"`
	Price float64 `json:"price"`
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Customers returns the two-customer set used across filter tests:
// john (tier 1, pet scratch aged 2) and jane (tier 2, pet meowie aged 7).
func Customers() []Customer {
	return []Customer{
		{
			Name:   Ptr("john"),
			Tier:   Ptr(1),
			Pet:    &Animal{Name: Ptr("scratch"), Age: 2},
			Active: true,
		},
		{
			Name: Ptr("jane"),
			Tier: Ptr(2),
			Pet:  &Animal{Name: Ptr("meowie"), Age: 7, Points: Ptr(12)},
		},
	}
}

// Computers returns machines with distinct core counts in unsorted order.
func Computers() []Computer {
	return []Computer{
		{Name: "tower", Mainboard: &Mainboard{Name: "atx", CPU: &CPU{Name: "x8", Cores: 8}}},
		{Name: "laptop", Mainboard: &Mainboard{Name: "mini", CPU: &CPU{Name: "x2", Cores: 2}}},
		{Name: "server", Mainboard: &Mainboard{Name: "eatx", CPU: &CPU{Name: "x64", Cores: 64}}},
		{Name: "desktop", Mainboard: &Mainboard{Name: "matx", CPU: &CPU{Name: "x4", Cores: 4}}},
	}
}

// Items returns n items with IDs 1..n.
func Items(n int) []Item {
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{ID: i + 1, Label: fmt.Sprintf("item-%02d", i+1), Price: float64(i+1) * 1.5}
	}
	return items
}
