// Package fleet carries out every mutation of divisions, devices, channels and
// channel logs. Inputs are validated against the current snapshot before they
// reach the store, and every accepted write is followed by a snapshot refresh.
package fleet

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/denissonlm/AcoCameras/internal/metrics"
	"github.com/denissonlm/AcoCameras/internal/model"
	"github.com/denissonlm/AcoCameras/internal/snapshot"
)

type Store interface {
	InsertDivision(ctx context.Context, name string) (int64, error)
	UpdateDivision(ctx context.Context, id int64, name string) error
	DeleteDivision(ctx context.Context, id int64) error

	InsertDevice(ctx context.Context, d *model.Device) error
	UpdateDevice(ctx context.Context, d *model.Device) error
	DeleteDevice(ctx context.Context, id int64) error

	InsertChannel(ctx context.Context, c *model.Channel) error
	InsertChannels(ctx context.Context, channels []model.Channel) error
	RenameChannel(ctx context.Context, id int64, name string) error
	SetChannelState(ctx context.Context, id int64, status model.ChannelStatus, action model.ActionType, notes *string) error
	DeleteChannel(ctx context.Context, id int64) error

	ListLogs(ctx context.Context, channelID int64) ([]model.ChannelLog, error)
	GetLog(ctx context.Context, id int64) (*model.ChannelLog, error)
	InsertLog(ctx context.Context, l *model.ChannelLog) error
	UpdateLogEntry(ctx context.Context, id int64, entry string) error
	DeleteLog(ctx context.Context, id int64) error
}

type Snapshots interface {
	Current() snapshot.Snapshot
	Refresh(ctx context.Context) error
}

type Service struct {
	Store Store
	Cache Snapshots
}

func NewService(store Store, cache Snapshots) *Service {
	return &Service{Store: store, Cache: cache}
}

// Log entries written on behalf of the system.
const (
	RestoredEntry   = "Câmera foi restaurada para o status Online."
	NoNotesEntry    = "Ação registrada sem notas."
	emptyNoteReason = "A nota (apontamento) não pode estar vazia."
)

func (s *Service) fail(err error, what string) error {
	fe := Classify(err, what)
	metrics.RecordMutationFailure(string(fe.Kind))
	if fe.Kind == KindTransport || fe.Kind == KindPolicy {
		slog.Error("mutation failed", "op", what, "kind", fe.Kind, "error", err)
	}
	return fe
}

func (s *Service) settle(ctx context.Context) {
	if err := s.Cache.Refresh(ctx); err != nil {
		slog.Warn("refresh after mutation", "error", err)
	}
}

type DivisionInput struct {
	Name string `json:"name" label:"nome" validate:"required,max=100"`
}

func (s *Service) CreateDivision(ctx context.Context, in DivisionInput) (model.Division, error) {
	in.Name = strings.TrimSpace(in.Name)
	what := fmt.Sprintf("salvar a divisão %q", in.Name)
	if err := ValidateStruct(in); err != nil {
		return model.Division{}, s.fail(err, what)
	}
	if _, taken := s.Cache.Current().DivisionByName(in.Name); taken {
		return model.Division{}, s.fail(Validation(fmt.Sprintf("Erro: A divisão '%s' já existe.", in.Name)), what)
	}
	id, err := s.Store.InsertDivision(ctx, in.Name)
	if err != nil {
		return model.Division{}, s.fail(err, what)
	}
	s.settle(ctx)
	if d, ok := s.Cache.Current().Division(id); ok {
		return d, nil
	}
	return model.Division{ID: id, Name: in.Name}, nil
}

func (s *Service) UpdateDivision(ctx context.Context, id int64, in DivisionInput) (model.Division, error) {
	in.Name = strings.TrimSpace(in.Name)
	what := fmt.Sprintf("salvar a divisão %q", in.Name)
	if err := ValidateStruct(in); err != nil {
		return model.Division{}, s.fail(err, what)
	}
	snap := s.Cache.Current()
	current, ok := snap.Division(id)
	if !ok {
		return model.Division{}, s.fail(NotFound("Divisão não encontrada."), what)
	}
	if other, taken := snap.DivisionByName(in.Name); taken && other.ID != id {
		return model.Division{}, s.fail(Validation(fmt.Sprintf("Erro: A divisão '%s' já existe.", in.Name)), what)
	}
	if current.Name == in.Name {
		return current, nil
	}
	if err := s.Store.UpdateDivision(ctx, id, in.Name); err != nil {
		return model.Division{}, s.fail(err, what)
	}
	s.settle(ctx)
	current.Name = in.Name
	return current, nil
}

// DeleteDivision removes a division no device uses, along with its layout.
func (s *Service) DeleteDivision(ctx context.Context, id int64, confirmed bool) error {
	snap := s.Cache.Current()
	division, ok := snap.Division(id)
	if !ok {
		return s.fail(NotFound("Divisão não encontrada."), "excluir a divisão")
	}
	what := fmt.Sprintf("excluir a divisão %q", division.Name)
	if snap.DevicesInDivision(id) > 0 {
		return s.fail(Reference(fmt.Sprintf("A divisão %q não pode ser excluída pois está sendo utilizada por um ou mais dispositivos.", division.Name)), what)
	}
	if !confirmed {
		return Confirmation(fmt.Sprintf("Tem certeza de que deseja excluir a divisão %q? O layout associado (se existir) também será excluído. Esta ação não pode ser desfeita.", division.Name))
	}
	if err := s.Store.DeleteDivision(ctx, id); err != nil {
		return s.fail(err, what)
	}
	s.settle(ctx)
	return nil
}

type DeviceInput struct {
	Name         string           `json:"name" label:"nome" validate:"required,max=100"`
	Location     string           `json:"location" label:"localização" validate:"max=200"`
	Type         model.DeviceType `json:"type" label:"tipo" validate:"required,oneof=NVR DVR"`
	DivisionID   int64            `json:"division_id" label:"divisão" validate:"required,gt=0"`
	ChannelCount int              `json:"channel_count" label:"quantidade de canais" validate:"required,oneof=16 32"`
}

func (in *DeviceInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Location = strings.TrimSpace(in.Location)
	if in.Type == "" {
		in.Type = model.DeviceNVR
	}
	if in.ChannelCount == 0 {
		in.ChannelCount = model.Capacity16
	}
}

func (s *Service) checkDevice(in DeviceInput) error {
	if err := ValidateStruct(in); err != nil {
		return err
	}
	if _, ok := s.Cache.Current().Division(in.DivisionID); !ok {
		return Validation("Erro: A divisão selecionada não é válida. Por favor, recarregue a página e tente novamente.")
	}
	return nil
}

func (s *Service) CreateDevice(ctx context.Context, in DeviceInput) (model.Device, error) {
	in.normalize()
	const what = "adicionar o dispositivo"
	if err := s.checkDevice(in); err != nil {
		return model.Device{}, s.fail(err, what)
	}
	d := model.Device{
		Name:         in.Name,
		Location:     in.Location,
		Type:         in.Type,
		DivisionID:   in.DivisionID,
		ChannelCount: in.ChannelCount,
	}
	if err := s.Store.InsertDevice(ctx, &d); err != nil {
		return model.Device{}, s.fail(err, what)
	}
	s.settle(ctx)
	if stored, ok := s.Cache.Current().Device(d.ID); ok {
		return stored, nil
	}
	d.Channels = []model.Channel{}
	return d, nil
}

// UpdateDevice rejects a capacity below the channels already registered.
func (s *Service) UpdateDevice(ctx context.Context, id int64, in DeviceInput) (model.Device, error) {
	in.normalize()
	const what = "atualizar o dispositivo"
	current, ok := s.Cache.Current().Device(id)
	if !ok {
		return model.Device{}, s.fail(NotFound("Dispositivo não encontrado."), what)
	}
	if err := s.checkDevice(in); err != nil {
		return model.Device{}, s.fail(err, what)
	}
	if len(current.Channels) > in.ChannelCount {
		return model.Device{}, s.fail(Validation(fmt.Sprintf("O dispositivo já possui %d canais e não pode ter a capacidade reduzida para %d.", len(current.Channels), in.ChannelCount)), what)
	}
	d := current
	d.Name, d.Location, d.Type, d.DivisionID, d.ChannelCount = in.Name, in.Location, in.Type, in.DivisionID, in.ChannelCount
	if err := s.Store.UpdateDevice(ctx, &d); err != nil {
		return model.Device{}, s.fail(err, what)
	}
	s.settle(ctx)
	return d, nil
}

// DeleteDevice removes the device with all of its channels, their logs and
// their layout markers.
func (s *Service) DeleteDevice(ctx context.Context, id int64, confirmed bool) error {
	device, ok := s.Cache.Current().Device(id)
	if !ok {
		return s.fail(NotFound("Dispositivo não encontrado."), "excluir o dispositivo")
	}
	what := fmt.Sprintf("excluir o dispositivo %q", device.Name)
	if !confirmed {
		return Confirmation(fmt.Sprintf("Tem certeza de que deseja excluir o dispositivo %q? Isto também removerá TODAS as suas câmeras, seus históricos e posições no layout. Esta ação não pode ser desfeita.", device.Name))
	}
	if err := s.Store.DeleteDevice(ctx, id); err != nil {
		return s.fail(err, what)
	}
	s.settle(ctx)
	return nil
}

type ChannelInput struct {
	Name string `json:"name" label:"nome" validate:"required,max=100"`
}

func (s *Service) CreateChannel(ctx context.Context, deviceID int64, in ChannelInput) (model.Channel, error) {
	in.Name = strings.TrimSpace(in.Name)
	what := fmt.Sprintf("salvar o canal %q", in.Name)
	device, ok := s.Cache.Current().Device(deviceID)
	if !ok {
		return model.Channel{}, s.fail(NotFound("Dispositivo não encontrado."), what)
	}
	if err := ValidateStruct(in); err != nil {
		return model.Channel{}, s.fail(err, what)
	}
	if device.IsFull() {
		return model.Channel{}, s.fail(Validation(fmt.Sprintf("Este dispositivo já atingiu o limite de %d canais e não pode adicionar mais.", device.ChannelCount)), what)
	}
	c := model.Channel{DeviceID: deviceID, Name: in.Name, Status: model.StatusOnline}
	if err := s.Store.InsertChannel(ctx, &c); err != nil {
		return model.Channel{}, s.fail(err, what)
	}
	s.settle(ctx)
	return c, nil
}

func (s *Service) RenameChannel(ctx context.Context, id int64, in ChannelInput) (model.Channel, error) {
	in.Name = strings.TrimSpace(in.Name)
	what := fmt.Sprintf("salvar o canal %q", in.Name)
	channel, _, ok := s.Cache.Current().Channel(id)
	if !ok {
		return model.Channel{}, s.fail(NotFound("Canal não encontrado."), what)
	}
	if err := ValidateStruct(in); err != nil {
		return model.Channel{}, s.fail(err, what)
	}
	if channel.Name == in.Name {
		return channel, nil
	}
	if err := s.Store.RenameChannel(ctx, id, in.Name); err != nil {
		return model.Channel{}, s.fail(err, what)
	}
	s.settle(ctx)
	channel.Name = in.Name
	return channel, nil
}

// DeleteChannel removes the channel. Its logs and layout marker go with it.
func (s *Service) DeleteChannel(ctx context.Context, id int64, confirmed bool) error {
	channel, _, ok := s.Cache.Current().Channel(id)
	if !ok {
		return s.fail(NotFound("Canal não encontrado."), "excluir o canal")
	}
	what := fmt.Sprintf("excluir o canal %q", channel.Name)
	if !confirmed {
		return Confirmation(fmt.Sprintf("Tem certeza de que deseja excluir o canal %q? Isto também removerá seu histórico de eventos e sua posição no mapa de layout. Esta ação não pode ser desfeita.", channel.Name))
	}
	if err := s.Store.DeleteChannel(ctx, id); err != nil {
		return s.fail(err, what)
	}
	s.settle(ctx)
	return nil
}

var camName = regexp.MustCompile(`(?i)^Cam\s*(\d+)$`)

// AutoChannelNames returns the names that fill device up to its capacity,
// numbered after the highest existing "Cam N".
func AutoChannelNames(device model.Device) []string {
	free := device.AvailableChannels()
	if free == 0 {
		return nil
	}
	start := 1
	for _, c := range device.Channels {
		m := camName.FindStringSubmatch(c.Name)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n >= start {
			start = n + 1
		}
	}
	names := make([]string, free)
	for i := range names {
		names[i] = fmt.Sprintf("Cam %d", start+i)
	}
	return names
}

func (s *Service) AutoCreateChannels(ctx context.Context, deviceID int64, confirmed bool) ([]model.Channel, error) {
	const what = "criar as câmeras automaticamente"
	device, ok := s.Cache.Current().Device(deviceID)
	if !ok {
		return nil, s.fail(NotFound("Dispositivo não encontrado."), what)
	}
	names := AutoChannelNames(device)
	if len(names) == 0 {
		return nil, s.fail(Validation("Não há canais disponíveis neste dispositivo."), what)
	}
	if !confirmed {
		return nil, Confirmation(fmt.Sprintf("Tem certeza que deseja criar %d câmeras automaticamente para o dispositivo %q?", len(names), device.Name))
	}
	channels := make([]model.Channel, len(names))
	for i, name := range names {
		channels[i] = model.Channel{DeviceID: deviceID, Name: name, Status: model.StatusOnline}
	}
	if err := s.Store.InsertChannels(ctx, channels); err != nil {
		return nil, s.fail(err, what)
	}
	s.settle(ctx)
	return channels, nil
}

type ActionInput struct {
	Action model.ActionType `json:"action" label:"ação" validate:"required"`
	Notes  string           `json:"notes" label:"notas" validate:"max=2000"`
}

// TakeAction registers a corrective action, which also marks the channel
// Offline, and writes a system log entry. A failed log write is only logged.
func (s *Service) TakeAction(ctx context.Context, channelID int64, in ActionInput) (model.Channel, error) {
	in.Notes = strings.TrimSpace(in.Notes)
	const what = "registrar a ação"
	channel, _, ok := s.Cache.Current().Channel(channelID)
	if !ok {
		return model.Channel{}, s.fail(NotFound("Canal não encontrado."), what)
	}
	if err := ValidateStruct(in); err != nil {
		return model.Channel{}, s.fail(err, what)
	}
	if !in.Action.Valid() {
		return model.Channel{}, s.fail(Validation(fmt.Sprintf("Ação inválida: %q.", in.Action)), what)
	}
	notes := &in.Notes
	if err := s.Store.SetChannelState(ctx, channelID, model.StatusOffline, in.Action, notes); err != nil {
		return model.Channel{}, s.fail(err, what)
	}
	entry := in.Notes
	if entry == "" {
		entry = NoNotesEntry
	}
	s.systemLog(ctx, &model.ChannelLog{ChannelID: channelID, LogEntry: entry, NewStatus: model.StatusOffline, ActionTaken: in.Action})
	s.settle(ctx)

	channel.Status, channel.ActionTaken, channel.ActionNotes = model.StatusOffline, in.Action, notes
	return channel, nil
}

type StatusInput struct {
	Status model.ChannelStatus `json:"status" label:"status" validate:"required,oneof=Online Offline"`
}

// SetStatus changes a channel's status. Going Online clears the registered
// action and writes a restore entry; going Offline keeps the action fields.
func (s *Service) SetStatus(ctx context.Context, channelID int64, in StatusInput) (model.Channel, error) {
	const what = "alterar o status da câmera"
	channel, _, ok := s.Cache.Current().Channel(channelID)
	if !ok {
		return model.Channel{}, s.fail(NotFound("Canal não encontrado."), what)
	}
	if err := ValidateStruct(in); err != nil {
		return model.Channel{}, s.fail(err, what)
	}

	action, notes := channel.ActionTaken, channel.ActionNotes
	if in.Status == model.StatusOnline {
		action, notes = "", nil
	}
	if err := s.Store.SetChannelState(ctx, channelID, in.Status, action, notes); err != nil {
		return model.Channel{}, s.fail(err, what)
	}
	if in.Status == model.StatusOnline {
		s.systemLog(ctx, &model.ChannelLog{ChannelID: channelID, LogEntry: RestoredEntry, NewStatus: model.StatusOnline})
	}
	s.settle(ctx)

	channel.Status, channel.ActionTaken, channel.ActionNotes = in.Status, action, notes
	return channel, nil
}

func (s *Service) systemLog(ctx context.Context, l *model.ChannelLog) {
	if err := s.Store.InsertLog(ctx, l); err != nil {
		slog.Error("write system log entry", "channel", l.ChannelID, "error", err)
	}
}
