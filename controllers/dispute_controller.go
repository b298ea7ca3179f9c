package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"rto_engine/models"
	"rto_engine/service/dispute"
	"rto_engine/service/msg"
	"rto_engine/utils"

	"github.com/gin-gonic/gin"
)

// DisputeController 退回争议
type DisputeController struct {
	Engine *dispute.Engine
	// MediaBaseURL 证据文件的访问前缀，为空时使用当前请求的地址
	MediaBaseURL string
}

type case1Request struct {
	Status string `json:"status" binding:"required"`
}

type case2Request struct {
	Status        string `json:"status" binding:"required"`
	UploadedMedia *struct {
		PackingGallery  []string `json:"packing_gallery"`
		UnboxingGallery []string `json:"unboxing_gallery"`
	} `json:"uploaded_media"`
}

// RaiseCase1 发起一级争议
func (dc *DisputeController) RaiseCase1(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req case1Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, msg.ErrResponse("参数错误", err))
		return
	}

	o, err := dc.Engine.RaiseCase1(c.Request.Context(), actor, dispute.Case1Input{OrderID: id, Status: req.Status})
	if err != nil {
		respondError(c, "dispute_case1", err)
		return
	}
	respondOK(c, http.StatusOK, "dispute_case1", "一级争议已提交", msg.Data("order", o))
}

// RaiseCase2 发起二级争议，wrong item received 需要同时上传打包和开箱证据
func (dc *DisputeController) RaiseCase2(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req case2Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, msg.ErrResponse("参数错误", err))
		return
	}

	in := dispute.Case2Input{OrderID: id, Status: req.Status}
	if req.UploadedMedia != nil {
		in.UploadedMedia = &dispute.UploadedMedia{
			PackingGallery:  dc.mediaRefs(c, req.UploadedMedia.PackingGallery),
			UnboxingGallery: dc.mediaRefs(c, req.UploadedMedia.UnboxingGallery),
		}
	}

	o, err := dc.Engine.RaiseCase2(c.Request.Context(), actor, in)
	if err != nil {
		respondError(c, "dispute_case2", err)
		return
	}
	respondOK(c, http.StatusOK, "dispute_case2", "二级争议已提交", msg.Data("order", o))
}

// mediaRefs 把上传返回的相对路径补全为完整URL，确保只包含一个media前缀
func (dc *DisputeController) mediaRefs(c *gin.Context, paths []string) models.FileRefs {
	baseURL := dc.MediaBaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("%s://%s", utils.GetRequestProto(c), c.Request.Host)
	}
	refs := make(models.FileRefs, 0, len(paths))
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if strings.HasPrefix(p, "media/") {
			p = "/" + p
		}
		refs = append(refs, utils.BuildFullImageURL(baseURL, p, "media"))
	}
	return refs.Clean()
}
