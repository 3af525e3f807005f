package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ticktock/internal/model"
	"ticktock/internal/service"
)

type taskView struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Notes         string  `json:"notes"`
	EveryDays     int     `json:"everyDays"`
	NextDue       string  `json:"nextDue"`
	RemindAt      string  `json:"remindAt"`
	Priority      bool    `json:"priority"`
	LastCompleted *string `json:"lastCompleted"`
}

func newTaskView(t model.Task) taskView {
	return taskView{
		ID:            t.ID,
		Title:         t.Title,
		Notes:         t.Notes,
		EveryDays:     t.EveryDays,
		NextDue:       t.NextDue,
		RemindAt:      t.RemindAt,
		Priority:      t.Priority,
		LastCompleted: t.LastCompleted,
	}
}

func (h *handler) listTasks(c *gin.Context) {
	ident, _ := currentIdentity(c)
	tasks, err := h.tasks.List(c.Request.Context(), ident)
	if err != nil {
		writeError(c, err)
		return
	}

	views := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, newTaskView(t))
	}
	c.JSON(http.StatusOK, gin.H{"tasks": views})
}

func (h *handler) createTask(c *gin.Context) {
	ident, _ := currentIdentity(c)
	b := readBody(c)

	draft := service.TaskDraft{
		ID:        b.text("id"),
		Title:     b.text("title"),
		Notes:     b.text("notes"),
		EveryDays: b.integer("everyDays"),
		NextDue:   b.text("nextDue"),
		RemindAt:  b.text("remindAt"),
		Priority:  b.truthy("priority"),
	}
	if b.truthy("lastCompleted") {
		draft.LastCompleted = b.nullableText("lastCompleted")
	}

	id, err := h.tasks.Create(c.Request.Context(), ident, draft)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *handler) updateTask(c *gin.Context) {
	ident, _ := currentIdentity(c)
	if err := h.tasks.Update(c.Request.Context(), ident, c.Param("id"), taskPatchFrom(readBody(c))); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *handler) deleteTask(c *gin.Context) {
	ident, _ := currentIdentity(c)
	if err := h.tasks.Delete(c.Request.Context(), ident, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// taskPatchFrom marks exactly the keys present in b as set.
func taskPatchFrom(b body) service.TaskPatch {
	var p service.TaskPatch
	if b.has("title") {
		p.Title = service.Some(b.text("title"))
	}
	if b.has("notes") {
		p.Notes = service.Some(b.text("notes"))
	}
	if b.has("everyDays") {
		p.EveryDays = service.Some(b.integer("everyDays"))
	}
	if b.has("nextDue") {
		p.NextDue = service.Some(b.text("nextDue"))
	}
	if b.has("remindAt") {
		p.RemindAt = service.Some(b.text("remindAt"))
	}
	if b.has("priority") {
		p.Priority = service.Some(b.truthy("priority"))
	}
	if b.has("lastCompleted") {
		p.LastCompleted = service.Some(b.nullableText("lastCompleted"))
	}
	return p
}
