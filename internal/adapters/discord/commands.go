package discord

import "github.com/bwmarrin/discordgo"

func minVal(n float64) *float64 { return &n }

var Commands = []*discordgo.ApplicationCommand{
	{
		Name:        "lfg",
		Description: "Looking for group",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "create",
				Description: "Create a new LFG post",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:         discordgo.ApplicationCommandOptionString,
						Name:         "game",
						Description:  "Select a game",
						Required:     true,
						Autocomplete: true,
					},
					{
						Type:         discordgo.ApplicationCommandOptionString,
						Name:         "gametype",
						Description:  "Game type (suggested based on game)",
						Required:     true,
						Autocomplete: true,
					},
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "playercount",
						Description: "How many players needed (you included)",
						Required:    true,
						MinValue:    minVal(1),
						MaxValue:    10,
					},
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "duration",
						Description: "How long the post lasts (minutes)",
						MinValue:    minVal(5),
						MaxValue:    1440,
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "description",
						Description: "Additional details (optional)",
						MaxLength:   200,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "delete",
				Description: "Delete your LFG post",
				Options: []*discordgo.ApplicationCommandOption{{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "postid",
					Description: "The ID of your LFG post",
					Required:    true,
				}},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "join",
				Description: "Join an LFG post",
				Options: []*discordgo.ApplicationCommandOption{{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "postid",
					Description: "The ID of the post to join",
					Required:    true,
				}},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "leave",
				Description: "Leave an LFG post",
				Options: []*discordgo.ApplicationCommandOption{{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "postid",
					Description: "The ID of the post to leave",
					Required:    true,
				}},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "list",
				Description: "List the active LFG posts",
				Options: []*discordgo.ApplicationCommandOption{{
					Type:         discordgo.ApplicationCommandOptionString,
					Name:         "game",
					Description:  "Only show posts for this game",
					Autocomplete: true,
				}},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "cleanup",
				Description: "Remove every LFG post and room in this server (moderators)",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "members",
				Description: "Show who joined a post",
				Options: []*discordgo.ApplicationCommandOption{{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "postid",
					Description: "The ID of the post",
					Required:    true,
				}},
			},
		},
	},
}
