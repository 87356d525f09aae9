package messaging

// Exchange Names
const (
	// ContentEventsExchangeName topic exchange событий об изменении контента историй.
	ContentEventsExchangeName = "story_content_events"
	contentEventsExchangeType = "topic"
)

// Routing keys имеют вид content.<entityType>.<action>.
const (
	contentRoutingPrefix = "content"
	// StoryChangesBindingKey ключ привязки к изменениям самих историй.
	StoryChangesBindingKey = "content.story.*"
	// AllContentBindingKey ключ привязки ко всем событиям контента.
	AllContentBindingKey = "content.#"
)
