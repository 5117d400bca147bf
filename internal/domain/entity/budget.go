package entity

import (
	"fmt"
	"math"
)

// Costs holds the eight itemized cost estimates of a request
type Costs struct {
	Registration        float64 `json:"registration_cost"`
	Airfare             float64 `json:"airfare_cost"`
	Lodging             float64 `json:"lodging_cost"`
	MeetingRoomRental   float64 `json:"meeting_room_rental_cost"`
	CarRental           float64 `json:"car_rental_cost"`
	TravelMealAllowance float64 `json:"travel_meal_allowance_cost"`
	ConferenceMeals     float64 `json:"conference_meals_cost"`
	Other               float64 `json:"other_cost"`
}

// Items returns the cost fields paired with their labels, in form order
func (c Costs) Items() []CostItem {
	return []CostItem{
		{"Registration", c.Registration},
		{"Airfare", c.Airfare},
		{"Lodging", c.Lodging},
		{"Meeting Room Rental", c.MeetingRoomRental},
		{"Car Rental", c.CarRental},
		{"Travel Meal Allowance", c.TravelMealAllowance},
		{"Conference Meals", c.ConferenceMeals},
		{"Other", c.Other},
	}
}

// CostItem is one labelled cost field
type CostItem struct {
	Label  string
	Amount float64
}

// Total sums the eight cost fields. NaN and infinite values count as zero.
// The result is not rounded; use RoundCurrency or FormatCurrency for display.
func Total(c Costs) float64 {
	var total float64
	for _, item := range c.Items() {
		total += amountOrZero(item.Amount)
	}
	return total
}

// Sanitized returns a copy with NaN and infinite amounts replaced by zero
func (c Costs) Sanitized() Costs {
	return Costs{
		Registration:        amountOrZero(c.Registration),
		Airfare:             amountOrZero(c.Airfare),
		Lodging:             amountOrZero(c.Lodging),
		MeetingRoomRental:   amountOrZero(c.MeetingRoomRental),
		CarRental:           amountOrZero(c.CarRental),
		TravelMealAllowance: amountOrZero(c.TravelMealAllowance),
		ConferenceMeals:     amountOrZero(c.ConferenceMeals),
		Other:               amountOrZero(c.Other),
	}
}

// NegativeItems returns the labels of cost fields below zero
func (c Costs) NegativeItems() []string {
	var labels []string
	for _, item := range c.Items() {
		if item.Amount < 0 {
			labels = append(labels, item.Label)
		}
	}
	return labels
}

// RoundCurrency rounds to two decimal places
func RoundCurrency(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatCurrency renders an amount with two decimals
func FormatCurrency(v float64) string {
	return fmt.Sprintf("$%.2f", RoundCurrency(amountOrZero(v)))
}

func amountOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
