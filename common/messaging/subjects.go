package messaging

// Subject constants for the warden message bus.
// Follow the pattern: {domain}.{action}.{resource}
const (
	// Gateway event subjects - inbound events from the chat-platform gateway
	SubjectGatewayEventsMessage    = "gateway.events.message"     // New chat message
	SubjectGatewayEventsMemberJoin = "gateway.events.member_join" // Member joined a guild
	SubjectGatewayEventsMemberLeft = "gateway.events.member_left" // Member left a guild

	// Gateway action subjects - moderation actions executed by the gateway
	SubjectGatewayActionsDelete  = "gateway.actions.delete_message" // Delete a message
	SubjectGatewayActionsTimeout = "gateway.actions.timeout"        // Timeout a user
	SubjectGatewayActionsNotify  = "gateway.actions.notify"         // Send a notification/DM

	// Gateway query subjects - request/reply lookups against the gateway
	SubjectGatewayQueryGuilds = "gateway.query.guilds" // Guild membership/presence stats

	// Alert subjects - published by warden when a detection fires
	SubjectWardenAlertsCreated = "warden.alerts.created" // New security alert
)

// Queue group names for load-balanced consumers.
// Workers in the same queue group share messages (each message processed once).
const (
	QueueWardenWorkers = "warden-workers" // Pool of moderation event processors
)
