package discord

import "github.com/bwmarrin/discordgo"

// Command names as registered with Discord.
const (
	CommandRank           = "rank"
	CommandLevel          = "level"
	CommandCard           = "card"
	CommandGetLevel       = "Get level"
	CommandGetAuthorLevel = "Get author level"
)

const optionUser = "user"

// Commands returns the application commands the bot answers.
func Commands() []*discordgo.ApplicationCommand {
	dmPermission := false
	userOption := []*discordgo.ApplicationCommandOption{{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        optionUser,
		Description: "Member to look up; defaults to you",
	}}
	return []*discordgo.ApplicationCommand{
		{
			Name:         CommandRank,
			Type:         discordgo.ChatApplicationCommand,
			Description:  "Show a member's rank card",
			Options:      userOption,
			DMPermission: &dmPermission,
		},
		{
			Name:         CommandLevel,
			Type:         discordgo.ChatApplicationCommand,
			Description:  "Show a member's rank card",
			Options:      userOption,
			DMPermission: &dmPermission,
		},
		{
			Name:         CommandCard,
			Type:         discordgo.ChatApplicationCommand,
			Description:  "Show card settings and a preview",
			Options:      userOption,
			DMPermission: &dmPermission,
		},
		{
			Name:         CommandGetLevel,
			Type:         discordgo.UserApplicationCommand,
			DMPermission: &dmPermission,
		},
		{
			Name:         CommandGetAuthorLevel,
			Type:         discordgo.MessageApplicationCommand,
			DMPermission: &dmPermission,
		},
	}
}

// Register overwrites the application's commands, in guildID or globally
// when guildID is empty.
func Register(s *discordgo.Session, appID, guildID string) ([]*discordgo.ApplicationCommand, error) {
	return s.ApplicationCommandBulkOverwrite(appID, guildID, Commands())
}

// invoker returns who ran the interaction; guild interactions carry it on
// the member.
func invoker(i *discordgo.Interaction) (*discordgo.User, error) {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User, nil
	}
	if i.User != nil {
		return i.User, nil
	}
	return nil, ErrNoInvoker
}

// target resolves whose card a command asks for.
func target(data *discordgo.ApplicationCommandInteractionData, caller *discordgo.User) (*discordgo.User, error) {
	switch data.CommandType {
	case discordgo.ChatApplicationCommand:
		if data.Name != CommandRank && data.Name != CommandLevel && data.Name != CommandCard {
			return nil, ErrUnrecognizedCommand
		}
		for _, opt := range data.Options {
			if opt.Name != optionUser {
				continue
			}
			id, _ := opt.Value.(string)
			return resolvedUser(data, id)
		}
		return caller, nil
	case discordgo.UserApplicationCommand:
		return resolvedUser(data, data.TargetID)
	case discordgo.MessageApplicationCommand:
		if data.Resolved == nil {
			return nil, ErrNoTarget
		}
		msg, ok := data.Resolved.Messages[data.TargetID]
		if !ok || msg == nil || msg.Author == nil {
			return nil, ErrNoTarget
		}
		return msg.Author, nil
	default:
		return nil, ErrUnrecognizedCommand
	}
}

func resolvedUser(data *discordgo.ApplicationCommandInteractionData, id string) (*discordgo.User, error) {
	if data.Resolved == nil || id == "" {
		return nil, ErrNoTarget
	}
	u, ok := data.Resolved.Users[id]
	if !ok || u == nil {
		return nil, ErrNoTarget
	}
	return u, nil
}
