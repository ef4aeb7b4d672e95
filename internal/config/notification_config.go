package config

// NotificationConfig defines configuration for change notifications
type NotificationConfig struct {
	DiscordWebhookURL    string   `json:"discord_webhook_url,omitempty" yaml:"discord_webhook_url,omitempty" validate:"omitempty,url"`
	Username             string   `json:"username,omitempty" yaml:"username,omitempty"`
	MentionRoleIDs       []string `json:"mention_role_ids,omitempty" yaml:"mention_role_ids,omitempty" validate:"dive,numeric"`
	NotifyOnFirstSeen    bool     `json:"notify_on_first_seen" yaml:"notify_on_first_seen"`
	NotifyOnFailure      bool     `json:"notify_on_failure" yaml:"notify_on_failure"`
	SuppressLinkPreviews bool     `json:"suppress_link_previews" yaml:"suppress_link_previews"`
	ChunkSize            int      `json:"chunk_size,omitempty" yaml:"chunk_size,omitempty" validate:"min=100,max=2000"`
}

// NewDefaultNotificationConfig creates default notification configuration
func NewDefaultNotificationConfig() NotificationConfig {
	return NotificationConfig{
		DiscordWebhookURL:    "",
		Username:             DefaultNotificationUsername,
		MentionRoleIDs:       []string{},
		NotifyOnFirstSeen:    false,
		NotifyOnFailure:      true,
		SuppressLinkPreviews: true,
		ChunkSize:            DefaultNotificationChunkSize,
	}
}
