package guild

// Operation names used for metrics, spans and compensation reports
const (
	OpCreate   = "create"
	OpJoin     = "join"
	OpLeave    = "leave"
	OpTransfer = "transfer_leadership"
	OpRole     = "change_role"
	OpDeposit  = "deposit"
	OpWithdraw = "withdraw"
)

// Compensation step names
const (
	StepCreateGuild  = "create_guild"
	StepAddMember    = "add_member"
	StepLinkPlayer   = "link_player"
	StepUnlinkPlayer = "unlink_player"
)

// Log messages
const (
	LogMsgGuildCreated      = "Guild created"
	LogMsgMemberJoined      = "Guild member joined"
	LogMsgMemberLeft        = "Guild member left"
	LogMsgGuildDisbanded    = "Guild disbanded"
	LogMsgLeaderTransferred = "Guild leadership transferred"
	LogMsgTreasuryChanged   = "Guild treasury changed"
	LogMsgPublishFailed     = "Failed to publish guild event"
)
