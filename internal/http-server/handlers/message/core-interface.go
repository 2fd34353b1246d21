package message

import (
	"WaRelay/entity"
	"context"
)

type Core interface {
	SendMessage(ctx context.Context, to, text string) (*entity.SendResult, error)
}
