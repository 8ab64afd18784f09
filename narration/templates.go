package narration

// labelPlaceholder marks where a template takes the predicted label.
const labelPlaceholder = "{label}"

// fallbackGenericText is spoken when no usable template could be drawn.
const fallbackGenericText = "You're doing great!"

// maxTemplateTries bounds the random draws when looking for a label-free
// template.
const maxTemplateTries = 10

// genericTemplates is the fixed pool of filler narrations. Some reference the
// predicted label; those are skipped when no label is available.
var genericTemplates = []string{
	"You're doing great! 🎉",
	"Keep going, artist! 🖌️",
	"I love how this is turning out! 😍",
	"Nice lines! ✏️",
	"This is fun to watch! 😄",
	"Hmm... what could it be? 🤔",
	"You're onto something cool! 🧠",
	"That's coming along nicely! 🧩",
	"I think you're cooking up something awesome! 🍳",
	"You're drawing like a pro! 🧑‍🎨",
	"That looks like a {label}! 👀",
	"Hmm, is that a {label} I see? 👓",
	"Could it be... a {label}? 🧐",
	"Looks a lot like a {label} to me! 🤩",
}
