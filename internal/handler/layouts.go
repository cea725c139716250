package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/denissonlm/AcoCameras/internal/diskstat"
	"github.com/denissonlm/AcoCameras/internal/fleet"
	"github.com/denissonlm/AcoCameras/internal/layout"
	"github.com/denissonlm/AcoCameras/internal/metrics"
)

// Background image types accepted, by sniffed content type.
var mimeToExt = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

func (h *Handler) respondLayout(w http.ResponseWriter, divisionID int64, err error, what string) {
	if err != nil {
		writeError(w, err, what)
		return
	}
	jsonOK(w, layout.BuildView(h.Cache.Current(), divisionID))
}

type placeRequest struct {
	ChannelID int64 `json:"channelId"`
	layout.Position
}

func (h *Handler) LayoutPlace(w http.ResponseWriter, r *http.Request) {
	const what = "posicionar a câmera"
	divisionID, err := idParam(r, "divisionID")
	if err != nil {
		writeError(w, err, what)
		return
	}
	var req placeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, what)
		return
	}
	p, err := req.Resolve()
	if err != nil {
		writeError(w, err, what)
		return
	}
	_, err = h.Layouts.Place(r.Context(), divisionID, req.ChannelID, p)
	h.respondLayout(w, divisionID, err, what)
}

// layoutIDs parses the division and channel of a marker route.
func layoutIDs(r *http.Request) (divisionID, channelID int64, err error) {
	if divisionID, err = idParam(r, "divisionID"); err != nil {
		return 0, 0, err
	}
	channelID, err = idParam(r, "channelID")
	return divisionID, channelID, err
}

func (h *Handler) LayoutMove(w http.ResponseWriter, r *http.Request) {
	const what = "mover a câmera"
	divisionID, channelID, err := layoutIDs(r)
	if err != nil {
		writeError(w, err, what)
		return
	}
	var pos layout.Position
	if err := decodeJSON(w, r, &pos); err != nil {
		writeError(w, err, what)
		return
	}
	p, err := pos.Resolve()
	if err != nil {
		writeError(w, err, what)
		return
	}
	_, err = h.Layouts.Move(r.Context(), divisionID, channelID, p)
	h.respondLayout(w, divisionID, err, what)
}

func (h *Handler) LayoutRotate(w http.ResponseWriter, r *http.Request) {
	const what = "girar a câmera"
	divisionID, channelID, err := layoutIDs(r)
	if err != nil {
		writeError(w, err, what)
		return
	}
	_, err = h.Layouts.Rotate(r.Context(), divisionID, channelID)
	h.respondLayout(w, divisionID, err, what)
}

func (h *Handler) LayoutFlip(w http.ResponseWriter, r *http.Request) {
	const what = "espelhar a câmera"
	divisionID, channelID, err := layoutIDs(r)
	if err != nil {
		writeError(w, err, what)
		return
	}
	_, err = h.Layouts.Flip(r.Context(), divisionID, channelID)
	h.respondLayout(w, divisionID, err, what)
}

func (h *Handler) LayoutRemove(w http.ResponseWriter, r *http.Request) {
	const what = "remover a câmera do layout"
	divisionID, channelID, err := layoutIDs(r)
	if err != nil {
		writeError(w, err, what)
		return
	}
	_, err = h.Layouts.Remove(r.Context(), divisionID, channelID)
	h.respondLayout(w, divisionID, err, what)
}

type rotateRequest struct {
	Degrees int `json:"degrees"`
}

func (h *Handler) LayoutBackgroundRotate(w http.ResponseWriter, r *http.Request) {
	const what = "girar a imagem de fundo"
	divisionID, err := idParam(r, "divisionID")
	if err != nil {
		writeError(w, err, what)
		return
	}
	var req rotateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, what)
		return
	}
	_, err = h.Layouts.RotateBackground(r.Context(), divisionID, req.Degrees)
	h.respondLayout(w, divisionID, err, what)
}

func (h *Handler) LayoutBackgroundReset(w http.ResponseWriter, r *http.Request) {
	const what = "restaurar a rotação da imagem de fundo"
	divisionID, err := idParam(r, "divisionID")
	if err != nil {
		writeError(w, err, what)
		return
	}
	_, err = h.Layouts.ResetBackgroundRotation(r.Context(), divisionID)
	h.respondLayout(w, divisionID, err, what)
}

// LayoutBackgroundUpload replaces the division's floor plan with the
// multipart "image" file.
func (h *Handler) LayoutBackgroundUpload(w http.ResponseWriter, r *http.Request) {
	const what = "carregar a imagem do layout"
	divisionID, err := idParam(r, "divisionID")
	if err != nil {
		writeError(w, err, what)
		return
	}
	if h.DiskCache != nil && h.DiskCache.Get().WarningLevel(h.diskThresholds()) == diskstat.WarnBlock {
		metrics.RecordUpload("disk_full")
		writeError(w, &fleet.Error{Kind: fleet.KindPolicy, Message: "Espaço em disco insuficiente para novas imagens. Contate um administrador."}, what)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.Cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			validationError(w, "A imagem excede o tamanho máximo permitido.")
			return
		}
		writeError(w, layout.ErrNoImage, what)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, layout.ErrNoImage, what)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, err, what)
		return
	}

	ext, ok := mimeToExt[http.DetectContentType(data)]
	if !ok {
		validationError(w, "O arquivo enviado não é uma imagem suportada (PNG, JPEG, GIF ou WEBP).")
		return
	}

	_, err = h.Layouts.ReplaceBackground(r.Context(), divisionID, "layout"+ext, data)
	h.respondLayout(w, divisionID, err, what)
}
