package discord

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/groupup-gg/lfg-bot/internal/app/service"
)

// RoomManager implements service.RoomService on top of the live session. It
// persists nothing: room existence and occupancy are always read from the
// platform on demand.
type RoomManager struct {
	s        *discordgo.Session
	parentID string // category the LFG voice rooms are created under, optional
	log      *zap.SugaredLogger
}

func NewRoomManager(s *discordgo.Session, parentCategoryID string, log *zap.SugaredLogger) *RoomManager {
	return &RoomManager{s: s, parentID: parentCategoryID, log: log}
}

func (r *RoomManager) Provision(ctx context.Context, guildID, name string, capacity int) (string, error) {
	ch, err := r.s.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:      name,
		Type:      discordgo.ChannelTypeGuildVoice,
		UserLimit: capacity,
		ParentID:  r.parentID,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	r.log.Infow("voice room created", "guild", guildID, "room", ch.ID, "name", name)
	return ch.ID, nil
}

// Release deletes the voice channel. A channel that is already gone counts as
// released.
func (r *RoomManager) Release(ctx context.Context, guildID, roomID string) error {
	_, err := r.s.ChannelDelete(roomID, discordgo.WithContext(ctx))
	if err == nil || isUnknownChannel(err) {
		return nil
	}
	return err
}

// Status checks the channel still exists (state first, then REST) and counts
// voice states pointing at it.
func (r *RoomManager) Status(ctx context.Context, guildID, roomID string) (service.RoomStatus, error) {
	if _, err := r.s.State.Channel(roomID); err != nil {
		if _, err := r.s.Channel(roomID, discordgo.WithContext(ctx)); err != nil {
			if isUnknownChannel(err) {
				return service.RoomGone, nil
			}
			return service.RoomGone, err
		}
	}

	g, err := r.s.State.Guild(guildID)
	if err != nil || g == nil {
		return service.RoomGone, errors.New("guild not in state")
	}
	for _, vs := range g.VoiceStates {
		if vs.ChannelID == roomID {
			return service.RoomOccupied, nil
		}
	}
	return service.RoomEmpty, nil
}

func (r *RoomManager) GuildAvailable(guildID string) bool {
	g, err := r.s.State.Guild(guildID)
	return err == nil && g != nil
}

func isUnknownChannel(err error) bool {
	var rest *discordgo.RESTError
	return errors.As(err, &rest) && rest.Message != nil &&
		rest.Message.Code == discordgo.ErrCodeUnknownChannel
}

func isUnknownMessage(err error) bool {
	var rest *discordgo.RESTError
	return errors.As(err, &rest) && rest.Message != nil &&
		rest.Message.Code == discordgo.ErrCodeUnknownMessage
}
