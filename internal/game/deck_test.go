package game

import (
	"fmt"
	"testing"
)

func TestDraw(t *testing.T) {
	pool := []string{"a", "b", "c", "d"}

	drawn := Draw(&pool, 2)
	if len(drawn) != 2 || drawn[0] != "a" || drawn[1] != "b" {
		t.Errorf("Expected [a b], got %v", drawn)
	}
	if len(pool) != 2 {
		t.Errorf("Expected pool of 2 remaining, got %v", pool)
	}

	// Drawing more than remains returns what's left
	drawn = Draw(&pool, 5)
	if len(drawn) != 2 {
		t.Errorf("Expected 2 cards from short pool, got %v", drawn)
	}
	if len(pool) != 0 {
		t.Errorf("Expected empty pool, got %v", pool)
	}

	// Empty pool never errors
	drawn = Draw(&pool, 3)
	if drawn != nil {
		t.Errorf("Expected nil from empty pool, got %v", drawn)
	}
}

func TestDrawOne(t *testing.T) {
	pool := []string{"only"}

	card, ok := DrawOne(&pool)
	if !ok || card != "only" {
		t.Errorf("Expected (only, true), got (%s, %v)", card, ok)
	}

	_, ok = DrawOne(&pool)
	if ok {
		t.Error("Expected ok=false from empty pool")
	}
}

func TestDealToFullHands(t *testing.T) {
	players := []*Player{
		NewPlayer("Alice", true),
		NewPlayer("Bob", false),
	}
	players[0].Hand = []string{"kept"}

	pool := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		pool = append(pool, fmt.Sprintf("card-%d", i))
	}

	DealToFullHands(players, &pool, HandSize)

	if len(players[0].Hand) != HandSize {
		t.Errorf("Expected Alice to hold %d cards, got %d", HandSize, len(players[0].Hand))
	}
	if players[0].Hand[0] != "kept" {
		t.Error("Existing cards should stay at the front of the hand")
	}
	if len(players[1].Hand) != HandSize {
		t.Errorf("Expected Bob to hold %d cards, got %d", HandSize, len(players[1].Hand))
	}
	// Alice draws HandSize-1 on top of her kept card, Bob draws a full hand
	if want := 20 - (HandSize - 1) - HandSize; len(pool) != want {
		t.Errorf("Expected %d cards left in pool, got %d", want, len(pool))
	}
}

func TestDealToFullHandsShortPool(t *testing.T) {
	players := []*Player{
		NewPlayer("Alice", true),
		NewPlayer("Bob", false),
	}
	pool := []string{"a", "b", "c"}

	DealToFullHands(players, &pool, 2)

	// Earlier players get priority when the pool runs short
	if len(players[0].Hand) != 2 {
		t.Errorf("Expected Alice to hold 2 cards, got %d", len(players[0].Hand))
	}
	if len(players[1].Hand) != 1 {
		t.Errorf("Expected Bob to hold 1 card, got %d", len(players[1].Hand))
	}
	if len(pool) != 0 {
		t.Errorf("Expected empty pool, got %v", pool)
	}
}
