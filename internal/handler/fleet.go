package handler

import (
	"net/http"

	"github.com/denissonlm/AcoCameras/internal/fleet"
)

func (h *Handler) DivisionCreate(w http.ResponseWriter, r *http.Request) {
	var in fleet.DivisionInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err, "salvar a divisão")
		return
	}
	d, err := h.Fleet.CreateDivision(r.Context(), in)
	if err != nil {
		writeError(w, err, "salvar a divisão")
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *Handler) DivisionUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err, "salvar a divisão")
		return
	}
	var in fleet.DivisionInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err, "salvar a divisão")
		return
	}
	d, err := h.Fleet.UpdateDivision(r.Context(), id, in)
	if err != nil {
		writeError(w, err, "salvar a divisão")
		return
	}
	jsonOK(w, d)
}

func (h *Handler) DivisionDelete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err, "excluir a divisão")
		return
	}
	if err := h.Fleet.DeleteDivision(r.Context(), id, confirmed(r)); err != nil {
		writeError(w, err, "excluir a divisão")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeviceCreate(w http.ResponseWriter, r *http.Request) {
	var in fleet.DeviceInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err, "adicionar o dispositivo")
		return
	}
	d, err := h.Fleet.CreateDevice(r.Context(), in)
	if err != nil {
		writeError(w, err, "adicionar o dispositivo")
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *Handler) DeviceUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err, "atualizar o dispositivo")
		return
	}
	var in fleet.DeviceInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err, "atualizar o dispositivo")
		return
	}
	d, err := h.Fleet.UpdateDevice(r.Context(), id, in)
	if err != nil {
		writeError(w, err, "atualizar o dispositivo")
		return
	}
	jsonOK(w, d)
}

func (h *Handler) DeviceDelete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err, "excluir o dispositivo")
		return
	}
	if err := h.Fleet.DeleteDevice(r.Context(), id, confirmed(r)); err != nil {
		writeError(w, err, "excluir o dispositivo")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ChannelCreate(w http.ResponseWriter, r *http.Request) {
	deviceID, err := idParam(r, "id")
	if err != nil {
		writeError(w, err, "salvar o canal")
		return
	}
	var in fleet.ChannelInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err, "salvar o canal")
		return
	}
	c, err := h.Fleet.CreateChannel(r.Context(), deviceID, in)
	if err != nil {
		writeError(w, err, "salvar o canal")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) ChannelsAutoCreate(w http.ResponseWriter, r *http.Request) {
	deviceID, err := idParam(r, "id")
	if err != nil {
		writeError(w, err, "criar as câmeras automaticamente")
		return
	}
	created, err := h.Fleet.AutoCreateChannels(r.Context(), deviceID, confirmed(r))
	if err != nil {
		writeError(w, err, "criar as câmeras automaticamente")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) ChannelRename(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err, "salvar o canal")
		return
	}
	var in fleet.ChannelInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err, "salvar o canal")
		return
	}
	c, err := h.Fleet.RenameChannel(r.Context(), id, in)
	if err != nil {
		writeError(w, err, "salvar o canal")
		return
	}
	jsonOK(w, c)
}

func (h *Handler) ChannelDelete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err, "excluir o canal")
		return
	}
	if err := h.Fleet.DeleteChannel(r.Context(), id, confirmed(r)); err != nil {
		writeError(w, err, "excluir o canal")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ChannelTakeAction(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err, "registrar a ação")
		return
	}
	var in fleet.ActionInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err, "registrar a ação")
		return
	}
	c, err := h.Fleet.TakeAction(r.Context(), id, in)
	if err != nil {
		writeError(w, err, "registrar a ação")
		return
	}
	jsonOK(w, c)
}

func (h *Handler) ChannelSetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err, "alterar o status da câmera")
		return
	}
	var in fleet.StatusInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err, "alterar o status da câmera")
		return
	}
	c, err := h.Fleet.SetStatus(r.Context(), id, in)
	if err != nil {
		writeError(w, err, "alterar o status da câmera")
		return
	}
	jsonOK(w, c)
}

func (h *Handler) LogCreate(w http.ResponseWriter, r *http.Request) {
	channelID, err := idParam(r, "id")
	if err != nil {
		writeError(w, err, "salvar o apontamento")
		return
	}
	var in fleet.NoteInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err, "salvar o apontamento")
		return
	}
	l, err := h.Fleet.AddNote(r.Context(), channelID, in)
	if err != nil {
		writeError(w, err, "salvar o apontamento")
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (h *Handler) LogUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err, "atualizar o apontamento")
		return
	}
	var in fleet.NoteInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err, "atualizar o apontamento")
		return
	}
	l, err := h.Fleet.UpdateNote(r.Context(), id, in)
	if err != nil {
		writeError(w, err, "atualizar o apontamento")
		return
	}
	jsonOK(w, l)
}

func (h *Handler) LogDelete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err, "excluir o apontamento")
		return
	}
	if err := h.Fleet.DeleteNote(r.Context(), id, confirmed(r)); err != nil {
		writeError(w, err, "excluir o apontamento")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
