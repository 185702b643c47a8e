package cards

// Fallback decks cover oracle underflow: when generation comes back short,
// games start with these instead of failing. Kept deliberately generic so
// they fit any theme.

var fallbackWhiteCards = []string{
	"An inspirational poster of a cat.",
	"Forgetting why I walked into the room.",
	"A suspiciously confident pigeon.",
	"The last slice of pizza.",
	"Aggressively reply-all emails.",
	"A motivational speech from a GPS.",
	"Interpretive dance at a funeral.",
	"My browser history.",
	"A decorative bowl of fake fruit.",
	"Pretending to understand the plot.",
	"An unskippable ad.",
	"The printer at work.",
	"A conspiracy theory about geese.",
	"Passive-aggressive sticky notes.",
	"Slow walkers in a hurry.",
	"An expired coupon.",
	"My retirement plan: the lottery.",
	"A very long voicemail from mom.",
	"Socks with sandals.",
	"The fourth cup of coffee.",
	"Karaoke without the lyrics screen.",
	"A self-checkout machine with opinions.",
	"Unexpected item in bagging area.",
}

var fallbackBlackCards = []string{
	"I drink to forget _______.",
	"What's that smell?",
	"I got 99 problems but _______ ain't one.",
	"Maybe she's born with it. Maybe it's _______.",
	"What's the next big workplace trend?",
	"It's a pity that kids these days are all getting involved with _______.",
	"What ended my last relationship?",
	"What's my secret power?",
	"Behind every great leader is _______.",
	"The real treasure was _______ all along.",
}
