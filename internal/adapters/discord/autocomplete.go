package discord

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

func (r *Router) handleAutocomplete(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	data := ic.ApplicationCommandData()
	if data.Name != "lfg" {
		return
	}

	var sub *discordgo.ApplicationCommandInteractionDataOption
	for _, o := range data.Options {
		if o.Type == discordgo.ApplicationCommandOptionSubCommand {
			sub = o
			break
		}
	}
	// create autocompletes game and gametype; list autocompletes its filter.
	if sub == nil || (sub.Name != "create" && sub.Name != "list") {
		return
	}

	var focused *discordgo.ApplicationCommandInteractionDataOption
	var gameInput string
	for _, o := range sub.Options {
		if o.Focused {
			focused = o
		}
		if o.Name == "game" && o.Type == discordgo.ApplicationCommandOptionString {
			gameInput = o.StringValue()
		}
	}
	if focused == nil {
		return
	}

	var choices []*discordgo.ApplicationCommandOptionChoice
	switch focused.Name {
	case "game":
		needle := strings.ToLower(focused.StringValue())
		for _, g := range r.catalog.All() {
			if needle != "" && !strings.Contains(strings.ToLower(g.Name), needle) &&
				!strings.Contains(g.Key, needle) {
				continue
			}
			choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
				Name:  g.Name,
				Value: g.Key,
			})
			if len(choices) == 25 {
				break
			}
		}
	case "gametype":
		g, ok := r.catalog.Lookup(gameInput)
		if !ok {
			break
		}
		if len(g.GameTypes) == 0 {
			// Free-form game: echo whatever is being typed.
			v := focused.StringValue()
			if v == "" {
				v = "Any"
			}
			choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: v, Value: v})
			break
		}
		needle := strings.ToLower(focused.StringValue())
		for _, t := range g.GameTypes {
			if needle != "" && !strings.Contains(strings.ToLower(t), needle) {
				continue
			}
			choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: t, Value: t})
		}
	}

	err := s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	})
	if err != nil {
		r.log.Warnw("autocomplete respond", "err", err)
	}
}
