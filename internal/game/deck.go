package game

// Draw removes and returns up to n cards from the front of pool. It returns
// fewer than n when the pool runs out; callers handle the shortfall.
func Draw(pool *[]string, n int) []string {
	if n <= 0 || len(*pool) == 0 {
		return nil
	}
	if n > len(*pool) {
		n = len(*pool)
	}
	drawn := make([]string, n)
	copy(drawn, (*pool)[:n])
	*pool = (*pool)[n:]
	return drawn
}

// DrawOne removes and returns the front card of pool. ok is false when the
// pool is empty.
func DrawOne(pool *[]string) (string, bool) {
	cards := Draw(pool, 1)
	if len(cards) == 0 {
		return "", false
	}
	return cards[0], true
}

// DealToFullHands tops every player's hand up to target cards, drawing from
// a shared pool in player order. When the pool runs short, earlier players
// get priority.
func DealToFullHands(players []*Player, pool *[]string, target int) {
	for _, p := range players {
		need := target - len(p.Hand)
		if need <= 0 {
			continue
		}
		p.Hand = append(p.Hand, Draw(pool, need)...)
	}
}
