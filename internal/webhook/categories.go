package webhook

import "fmt"

// Category convenience methods. Each is fire-and-forget: resolution,
// forward-flag gating, and fallback to the default destination all happen
// here, so producers call one method and move on.

func (s *Service) Join(playerName string) {
	st := s.settings.Load()
	if st == nil || !st.ForwardJoins {
		return
	}
	s.notify(CategoryAdmin, "🟢 Player Joined", fmt.Sprintf("`%s` joined the server.", playerName), 0x00FF00)
}

func (s *Service) Leave(playerName string) {
	st := s.settings.Load()
	if st == nil || !st.ForwardLeaves {
		return
	}
	s.notify(CategoryAdmin, "🔴 Player Left", fmt.Sprintf("`%s` left the server.", playerName), 0xFF0000)
}

func (s *Service) Chat(playerName, message string) {
	st := s.settings.Load()
	if st == nil || !st.ForwardChat {
		return
	}
	s.notify(CategoryChat, "🗣️ Public Chat", fmt.Sprintf("`%s`: %s", playerName, message), 0x0080FF)
}

func (s *Service) Private(message string) {
	s.notify(CategoryPrivate, "💬 Private Message", message, 0x0080FF)
}

func (s *Service) Command(playerName, command string) {
	st := s.settings.Load()
	if st == nil || !st.ForwardCommands {
		return
	}
	s.notify(CategoryCommand, "⚡ Command Executed", fmt.Sprintf("`%s` used `%s`", playerName, command), 0x808080)
}

func (s *Service) AdminAction(message string) {
	s.notify(CategoryAdmin, "👑 Admin Action", message, 0xFF0000)
}

func (s *Service) Economy(message string) {
	s.notify(CategoryEconomy, "💰 Economy Transaction", message, 0x00FF00)
}

func (s *Service) AntiCheatAlert(message string, critical bool) {
	title, color := "⚠️ Anti-Cheat Alert", 0xFFFF00
	if critical {
		title, color = "🚨 CRITICAL Anti-Cheat Alert", 0xFF0000
	}
	s.notify(CategoryAntiCheat, title, message, color)
}

func (s *Service) ClanEvent(message string) {
	s.notify(CategoryClan, "🏰 Clan Event", message, 0x800080)
}

// BountyFeed posts bounty placements and claims to the bounty channel.
func (s *Service) BountyFeed(message string) {
	s.notify(CategoryBounty, "🎯 Bounty Update", message, 0xFFA500)
}

func (s *Service) PlayerReport(message string) {
	s.notify(CategoryReport, "📝 Player Report", message, 0xFF69B4)
}

// Digest posts the periodic activity summary to the admin channel.
func (s *Service) Digest(message string) {
	s.notify(CategoryAdmin, "📊 Activity Digest", message, 0x3FB950)
}

// ForwardLog lets the logging layer mirror WARN+ process logs to the admin
// channel. Implements logx.Forwarder.
func (s *Service) ForwardLog(line string) {
	s.notify(CategoryAdmin, "🪵 Server Log", line, 0xFFA500)
}
