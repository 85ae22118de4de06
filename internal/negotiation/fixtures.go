package negotiation

import "github.com/erazemk/fixitforward/internal/model"

// Line is one scripted chat message.
type Line struct {
	Text   string
	Sender model.Sender
}

// DemoTranscript is the example haggle shown by the demo command. Threads
// never start with it; callers post it explicitly.
var DemoTranscript = []Line{
	{"How much fee are you aiming for?", model.SenderOther},
	{"How about 250 thousand?", model.SenderSelf},
	{"That's too low, how about 400.000?", model.SenderOther},
	{"Too high, 350.000?", model.SenderSelf},
	{"Fair enough!", model.SenderOther},
}
