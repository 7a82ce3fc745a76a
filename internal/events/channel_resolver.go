package events

import (
	"github.com/google/uuid"
)

// ChannelResolver determines which channels an envelope is published to
type ChannelResolver interface {
	ResolveChannels(env Envelope) []string
}

// RoomChannelResolver routes chat and workflow events to the room channel and
// payment events to the paying school's channel.
type RoomChannelResolver struct{}

func NewRoomChannelResolver() *RoomChannelResolver {
	return &RoomChannelResolver{}
}

func (r *RoomChannelResolver) ResolveChannels(env Envelope) []string {
	var channels []string

	switch env.AggregateType {
	case AggregateTypeRoom, AggregateTypeDesignRequest:
		channels = append(channels, ChannelPrefixRoom+env.AggregateID)
	case AggregateTypePayment:
		if env.SchoolID != "" {
			channels = append(channels, ChannelPrefixSchool+env.SchoolID)
		}
	}

	return channels
}

func RoomChannel(roomID uuid.UUID) string {
	return ChannelPrefixRoom + roomID.String()
}

func SchoolChannel(schoolID uuid.UUID) string {
	return ChannelPrefixSchool + schoolID.String()
}
