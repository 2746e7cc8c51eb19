package handler

import (
	processingapp "github.com/gemerp/backend/internal/application/processing"
	"github.com/gin-gonic/gin"
)

// ProcessingHandler handles cut-and-polish, sort-lot and heat treatment endpoints
type ProcessingHandler struct {
	BaseHandler
	cutPolish *processingapp.CutPolishService
	sortLots  *processingapp.SortLotService
	heat      *processingapp.HeatTreatmentService
}

// NewProcessingHandler creates a new ProcessingHandler
func NewProcessingHandler(
	cutPolish *processingapp.CutPolishService,
	sortLots *processingapp.SortLotService,
	heat *processingapp.HeatTreatmentService,
) *ProcessingHandler {
	return &ProcessingHandler{cutPolish: cutPolish, sortLots: sortLots, heat: heat}
}

// RegisterRoutes mounts the processing routes
func (h *ProcessingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	cp := rg.Group("/cut-polish")
	cp.POST("", h.CreateCutPolish)
	cp.GET("", h.ListCutPolish)
	cp.GET("/item/:itemId", h.GetCutPolishByItem)
	cp.GET("/:id", h.GetCutPolish)
	cp.PUT("/:id", h.UpdateCutPolish)
	cp.POST("/:id/approve", h.ApproveCutPolish)
	cp.DELETE("/:id", h.DeactivateCutPolish)

	lots := rg.Group("/sort-lots")
	lots.POST("", h.CreateSortLot)
	lots.GET("", h.ListSortLots)
	lots.GET("/:id", h.GetSortLot)
	lots.POST("/:id/approve", h.ApproveSortLot)
	lots.DELETE("/:id", h.DeactivateSortLot)

	groups := rg.Group("/heat-groups")
	groups.POST("", h.CreateHeatGroup)
	groups.GET("", h.ListHeatGroups)
	groups.GET("/:id", h.GetHeatGroup)
	groups.GET("/:id/items", h.HeatGroupMembers)
	groups.PUT("/:id", h.UpdateHeatGroup)
	groups.DELETE("/:id", h.DeactivateHeatGroup)

	runs := rg.Group("/heat-treatments")
	runs.POST("", h.CreateHeatTreatment)
	runs.GET("", h.ListHeatTreatments)
	runs.GET("/:id", h.GetHeatTreatment)
	runs.PUT("/:id", h.UpdateHeatTreatment)
	runs.DELETE("/:id", h.DeactivateHeatTreatment)
}

// CreateCutPolish sends a stone to the cutter
func (h *ProcessingHandler) CreateCutPolish(c *gin.Context) {
	var req processingapp.CreateCutPolishRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.CreatedBy = operator(c)
	record, err := h.cutPolish.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, record)
}

func (h *ProcessingHandler) UpdateCutPolish(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req processingapp.UpdateCutPolishRequest
	if !h.BindJSON(c, &req) {
		return
	}
	record, err := h.cutPolish.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// ApproveCutPolish releases the cut stone into inventory and retires the source
func (h *ProcessingHandler) ApproveCutPolish(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	record, err := h.cutPolish.Approve(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

func (h *ProcessingHandler) DeactivateCutPolish(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.cutPolish.Deactivate(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, "Cut and polish record deactivated")
}

func (h *ProcessingHandler) GetCutPolish(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	record, err := h.cutPolish.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// GetCutPolishByItem returns the record that produced a cut stone
func (h *ProcessingHandler) GetCutPolishByItem(c *gin.Context) {
	itemID, ok := h.ParseID(c, "itemId")
	if !ok {
		return
	}
	record, err := h.cutPolish.GetByDerivedItem(c.Request.Context(), itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

func (h *ProcessingHandler) ListCutPolish(c *gin.Context) {
	var filter processingapp.RecordListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	records, total, err := h.cutPolish.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, records, total, filter.Page, filter.PageSize)
}

// CreateSortLot folds several items into one sorted lot
func (h *ProcessingHandler) CreateSortLot(c *gin.Context) {
	var req processingapp.CreateSortLotRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.CreatedBy = operator(c)
	record, err := h.sortLots.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, record)
}

// ApproveSortLot releases the lot and takes its sources out of inventory
func (h *ProcessingHandler) ApproveSortLot(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	record, err := h.sortLots.Approve(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

func (h *ProcessingHandler) DeactivateSortLot(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.sortLots.Deactivate(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, "Sort lot record deactivated")
}

func (h *ProcessingHandler) GetSortLot(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	record, err := h.sortLots.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

func (h *ProcessingHandler) ListSortLots(c *gin.Context) {
	var filter processingapp.RecordListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	records, total, err := h.sortLots.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, records, total, filter.Page, filter.PageSize)
}

// CreateHeatGroup opens a furnace batch
func (h *ProcessingHandler) CreateHeatGroup(c *gin.Context) {
	var req processingapp.HeatGroupRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.CreatedBy = operator(c)
	group, err := h.heat.CreateGroup(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, group)
}

func (h *ProcessingHandler) UpdateHeatGroup(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req processingapp.HeatGroupRequest
	if !h.BindJSON(c, &req) {
		return
	}
	group, err := h.heat.UpdateGroup(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, group)
}

func (h *ProcessingHandler) DeactivateHeatGroup(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.heat.DeactivateGroup(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, "Heat treatment group deactivated")
}

func (h *ProcessingHandler) GetHeatGroup(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	group, err := h.heat.GetGroup(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, group)
}

// HeatGroupMembers lists the batch's items in furnace order
func (h *ProcessingHandler) HeatGroupMembers(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	members, err := h.heat.GroupMembers(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, members)
}

func (h *ProcessingHandler) ListHeatGroups(c *gin.Context) {
	var filter processingapp.RecordListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	groups, total, err := h.heat.ListGroups(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, groups, total, filter.Page, filter.PageSize)
}

// CreateHeatTreatment records a heating run and writes its outcomes onto the items
func (h *ProcessingHandler) CreateHeatTreatment(c *gin.Context) {
	var req processingapp.HeatTreatmentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.CreatedBy = operator(c)
	run, err := h.heat.CreateTreatment(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, run)
}

func (h *ProcessingHandler) UpdateHeatTreatment(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req processingapp.HeatTreatmentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	run, err := h.heat.UpdateTreatment(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, run)
}

func (h *ProcessingHandler) DeactivateHeatTreatment(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.heat.DeactivateTreatment(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, "Heat treatment deactivated")
}

func (h *ProcessingHandler) GetHeatTreatment(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	run, err := h.heat.GetTreatment(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, run)
}

func (h *ProcessingHandler) ListHeatTreatments(c *gin.Context) {
	var filter processingapp.RecordListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	runs, total, err := h.heat.ListTreatments(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, runs, total, filter.Page, filter.PageSize)
}
