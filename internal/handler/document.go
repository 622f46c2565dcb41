package handler

import (
    "context"
    "fmt"
    "io"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/karthicware/ultra-bms-sub010/internal/config"
    "github.com/karthicware/ultra-bms-sub010/internal/repository"
    "github.com/karthicware/ultra-bms-sub010/internal/storage"
)

// documentEntityKinds are the business entities a document can attach to.
var documentEntityKinds = map[string]bool{
    "property":   true,
    "unit":       true,
    "tenant":     true,
    "lease":      true,
    "cheque":     true,
    "work_order": true,
}

// DocumentHandler exposes file attachments: multipart upload, metadata
// listing and expiring signed download links.  The signed-link endpoint is
// the only unauthenticated read; its HMAC is the access control.
type DocumentHandler struct {
    Documents *repository.DocumentRepo
    Store     storage.Store
    Cfg       config.StorageConfig
}

func NewDocumentHandler(documents *repository.DocumentRepo, store storage.Store, cfg config.StorageConfig) *DocumentHandler {
    return &DocumentHandler{Documents: documents, Store: store, Cfg: cfg}
}

// Upload stores a multipart file and records its metadata.  Form fields:
// file, entity_kind, entity_id.
func (h *DocumentHandler) Upload(c echo.Context) error {
    org, err := orgID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }
    kind := strings.ToLower(strings.TrimSpace(c.FormValue("entity_kind")))
    if !documentEntityKinds[kind] {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown entity_kind"})
    }
    entityID, err := strconv.ParseUint(c.FormValue("entity_id"), 10, 64)
    if err != nil || entityID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "entity_id is required"})
    }
    fh, err := c.FormFile("file")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "file is required"})
    }
    src, err := fh.Open()
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "could not read upload"})
    }
    defer src.Close()

    ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
    defer cancel()

    key, size, err := h.Store.Put(ctx, src)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not store file"})
    }
    contentType := fh.Header.Get("Content-Type")
    if contentType == "" {
        contentType = "application/octet-stream"
    }
    d := repository.Document{
        OrgID:       org,
        EntityKind:  kind,
        EntityID:    entityID,
        FileName:    fh.Filename,
        ContentType: contentType,
        SizeBytes:   size,
        StorageKey:  key,
    }
    if err := h.Documents.Create(ctx, &d); err != nil {
        return repoError(c, err, "could not save document")
    }
    return c.JSON(http.StatusCreated, d)
}

// List returns the documents attached to one entity, via query params
// entity_kind and entity_id.
func (h *DocumentHandler) List(c echo.Context) error {
    org, err := orgID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }
    kind := strings.ToLower(strings.TrimSpace(c.QueryParam("entity_kind")))
    if !documentEntityKinds[kind] {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown entity_kind"})
    }
    entityID, err := strconv.ParseUint(c.QueryParam("entity_id"), 10, 64)
    if err != nil || entityID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "entity_id is required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    out, err := h.Documents.ListByEntity(ctx, org, kind, entityID)
    if err != nil {
        return repoError(c, err, "could not list documents")
    }
    return c.JSON(http.StatusOK, echo.Map{"documents": out})
}

// Link issues an expiring signed download URL for a document the caller may
// see.  The URL works without a session until it expires.
func (h *DocumentHandler) Link(c echo.Context) error {
    org, err := orgID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    d, err := h.Documents.GetByIDAndOrg(ctx, id, org)
    if err != nil {
        return repoError(c, err, "could not load document")
    }
    exp := time.Now().UTC().Add(h.Cfg.URLTTL).Unix()
    sig := h.Store.Sign(d.StorageKey, exp)
    url := fmt.Sprintf("/api/v1/documents/download?key=%s&exp=%d&sig=%s", d.StorageKey, exp, sig)
    return c.JSON(http.StatusOK, echo.Map{
        "url":        url,
        "expires_at": time.Unix(exp, 0).UTC(),
        "file_name":  d.FileName,
    })
}

// Download streams a document by signed link.  No session check: the HMAC
// over key and expiry is the authorization.
func (h *DocumentHandler) Download(c echo.Context) error {
    key := c.QueryParam("key")
    sig := c.QueryParam("sig")
    exp, err := strconv.ParseInt(c.QueryParam("exp"), 10, 64)
    if err != nil || key == "" || sig == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "key, exp and sig are required"})
    }
    if !h.Store.Verify(key, exp, sig) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "link expired or invalid"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
    defer cancel()

    rc, err := h.Store.Get(ctx, key)
    if err != nil {
        if err == storage.ErrNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not open document"})
    }
    defer rc.Close()

    c.Response().Header().Set(echo.HeaderContentType, "application/octet-stream")
    c.Response().WriteHeader(http.StatusOK)
    _, err = io.Copy(c.Response(), rc)
    return err
}

// Delete soft-deletes document metadata; stored bytes stay behind for a
// later compaction pass.
func (h *DocumentHandler) Delete(c echo.Context) error {
    org, err := orgID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Documents.SoftDelete(ctx, id, org); err != nil {
        return repoError(c, err, "could not delete document")
    }
    return c.NoContent(http.StatusNoContent)
}
