package fetch

import "math/rand"

// friendlyMessages are shown when the target site answers with an error
// status. They are cosmetic; callers should only rely on membership.
var friendlyMessages = []string{
	"Seems like this website ghosted us. No roast today! 👻",
	"The site didn't pick up our call… must be socially awkward. 📵",
	"We knocked, but nobody answered. Maybe it's hiding from roasts. 🕵️",
	"That site slipped out without saying goodbye. 🚪💨",
	"It's giving us the cold shoulder. Must've heard about our burns. ❄️🔥",
	"This website is playing hard to get… no roast for now. 💅",
	"We tried to fetch it, but the site rage-quit on us. 🎮💥",
	"Looks like the site went stealth mode. Can't roast what we can't see. 🕶️",
	"The server just left us on read… savage. 📩❌",
	"This site flinched before the roast even began. 🐔🔥",
	"We poked it with a stick, but nothing happened. 🚶‍♂️🌾",
}

// FriendlyMessages returns a copy of the message pool.
func FriendlyMessages() []string {
	out := make([]string, len(friendlyMessages))
	copy(out, friendlyMessages)
	return out
}

// FriendlyMessage picks one message from the pool using r. The same seed
// always yields the same sequence.
func FriendlyMessage(r *rand.Rand) string {
	return friendlyMessages[r.Intn(len(friendlyMessages))]
}
