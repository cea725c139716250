package fleet

import (
	"context"
	"strings"

	"github.com/denissonlm/AcoCameras/internal/model"
)

type NoteInput struct {
	Entry string `json:"log_entry" label:"apontamento" validate:"max=5000"`
}

// Logs returns the channel's logbook, newest first.
func (s *Service) Logs(ctx context.Context, channelID int64) ([]model.ChannelLog, error) {
	const what = "carregar o histórico"
	if _, _, ok := s.Cache.Current().Channel(channelID); !ok {
		return nil, s.fail(NotFound("Canal não encontrado."), what)
	}
	logs, err := s.Store.ListLogs(ctx, channelID)
	if err != nil {
		return nil, s.fail(err, what)
	}
	if logs == nil {
		logs = []model.ChannelLog{}
	}
	return logs, nil
}

func (in *NoteInput) check() error {
	in.Entry = strings.TrimSpace(in.Entry)
	if in.Entry == "" {
		return Validation(emptyNoteReason)
	}
	return ValidateStruct(*in)
}

func (s *Service) AddNote(ctx context.Context, channelID int64, in NoteInput) (model.ChannelLog, error) {
	const what = "salvar o apontamento"
	if _, _, ok := s.Cache.Current().Channel(channelID); !ok {
		return model.ChannelLog{}, s.fail(NotFound("Canal não encontrado."), what)
	}
	if err := in.check(); err != nil {
		return model.ChannelLog{}, s.fail(err, what)
	}
	l := model.ChannelLog{ChannelID: channelID, LogEntry: in.Entry}
	if err := s.Store.InsertLog(ctx, &l); err != nil {
		return model.ChannelLog{}, s.fail(err, what)
	}
	s.settle(ctx)
	return l, nil
}

// userNote loads a log entry an operator may change.
func (s *Service) userNote(ctx context.Context, id int64, what string) (*model.ChannelLog, error) {
	l, err := s.Store.GetLog(ctx, id)
	if err != nil {
		return nil, s.fail(err, what)
	}
	if l == nil {
		return nil, s.fail(NotFound("Apontamento não encontrado."), what)
	}
	if l.IsSystemEvent() {
		return nil, s.fail(Validation("Registros automáticos do sistema não podem ser alterados ou excluídos."), what)
	}
	return l, nil
}

func (s *Service) UpdateNote(ctx context.Context, id int64, in NoteInput) (model.ChannelLog, error) {
	const what = "atualizar o apontamento"
	l, err := s.userNote(ctx, id, what)
	if err != nil {
		return model.ChannelLog{}, err
	}
	if err := in.check(); err != nil {
		return model.ChannelLog{}, s.fail(err, what)
	}
	if err := s.Store.UpdateLogEntry(ctx, id, in.Entry); err != nil {
		return model.ChannelLog{}, s.fail(err, what)
	}
	s.settle(ctx)
	l.LogEntry = in.Entry
	return *l, nil
}

func (s *Service) DeleteNote(ctx context.Context, id int64, confirmed bool) error {
	const what = "excluir o apontamento"
	if _, err := s.userNote(ctx, id, what); err != nil {
		return err
	}
	if !confirmed {
		return Confirmation("Tem certeza que deseja excluir este apontamento? Esta ação não pode ser desfeita.")
	}
	if err := s.Store.DeleteLog(ctx, id); err != nil {
		return s.fail(err, what)
	}
	s.settle(ctx)
	return nil
}
