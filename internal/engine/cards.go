package engine

import "math/rand/v2"

// ChanceCard is one card in the chance deck. Effect is the score change the
// card applies; special cards (immunity, extra movement, turn swap) carry a
// zero effect and are resolved by the interactive layer.
type ChanceCard struct {
	Number      int
	Description string
	Effect      int
}

// DeckSize is the number of cards in the chance deck.
const DeckSize = 20

var chanceDeck = [DeckSize]ChanceCard{
	{1, "Fixed tap leak", +2},
	{2, "Rain harvested", +2},
	{3, "Planted trees", +1},
	{4, "Clouds formed", +1},
	{5, "Preserved riverbank", +2},
	{6, "Cleaned well", +2},
	{7, "Saved plant", +1},
	{8, "Recycled water", +1},
	{9, "Bucket bath", +2},
	{10, "Drip irrigation", +2},
	{11, "Skip penalty", 0},
	{12, "Move forward 2", 0},
	{13, "Swap with next", 0},
	{14, "Water Shield", 0},
	{15, "Left tap running", -1},
	{16, "Bottle spilled", -1},
	{17, "Pipe burst", -3},
	{18, "Climate dries water", -2},
	{19, "Sewage contamination", -2},
	{20, "Wasted papers", -3},
}

// Card returns the chance card with the given number (1-based).
// Returns false if no such card exists.
func Card(number int) (ChanceCard, bool) {
	if number < 1 || number > DeckSize {
		return ChanceCard{}, false
	}
	return chanceDeck[number-1], true
}

// Deck returns a copy of the full chance deck, for the card-selection UI.
func Deck() []ChanceCard {
	out := make([]ChanceCard, DeckSize)
	copy(out, chanceDeck[:])
	return out
}

// DrawCard picks a uniformly random card using the supplied source.
// A nil source falls back to the global generator.
func DrawCard(rng *rand.Rand) ChanceCard {
	if rng == nil {
		return chanceDeck[rand.IntN(DeckSize)]
	}
	return chanceDeck[rng.IntN(DeckSize)]
}
