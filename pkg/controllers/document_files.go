package controllers

import (
	"errors"
	"fmt"

	"github.com/clinicsim/clinicsim-server/pkg/config"
	"github.com/clinicsim/clinicsim-server/pkg/models"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// DocumentController holds the dependencies for patient document handlers.
type DocumentController struct {
	AppConfig     *config.AppConfig
	DocumentModel *models.DocumentModel
	PatientModel  *models.PatientModel
	logger        *logrus.Entry
}

// NewDocumentController creates a new DocumentController.
func NewDocumentController(config *config.AppConfig, dm *models.DocumentModel, pm *models.PatientModel, logger *logrus.Logger) *DocumentController {
	return &DocumentController{
		AppConfig:     config,
		DocumentModel: dm,
		PatientModel:  pm,
		logger:        logger.WithField("controller", "document"),
	}
}

type patientFileReq struct {
	Pid      string `json:"pid"`
	FileName string `json:"file_name"`
}

type saveFileReq struct {
	Pid      string `json:"pid"`
	FileName string `json:"file_name"`
	Content  string `json:"content"`
}

type adminPatientReq struct {
	Pid string `json:"pid"`
}

// HandleGetPatientFile serves one document from a patient's folder. JSON
// documents come back as parsed bodies, everything else as raw bytes under
// the content type derived from the file name.
func (dc *DocumentController) HandleGetPatientFile(c *fiber.Ctx) error {
	req := new(patientFileReq)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if req.Pid == "" || req.FileName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "pid and file_name are required",
		})
	}

	doc, err := dc.DocumentModel.GetPatientFile(c.UserContext(), req.Pid, req.FileName)
	switch {
	case errors.Is(err, models.ErrDocumentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "File not found",
			"path":  dc.DocumentModel.BlobPath(req.Pid, req.FileName),
		})
	case err != nil:
		dc.logger.WithError(err).Errorln("failed to fetch file for patient:", req.Pid)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if doc.Kind == models.MediaKindJson {
		var body interface{}
		if err := json.Unmarshal(doc.Raw, &body); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.JSON(body)
	}

	c.Set(fiber.HeaderContentType, doc.ContentType)
	return c.Send(doc.Raw)
}

// HandleListPatientFiles lists every stored file for one patient.
func (dc *DocumentController) HandleListPatientFiles(c *fiber.Ctx) error {
	pid := c.Params("pid")

	files, err := dc.DocumentModel.ListPatientFiles(c.UserContext(), pid)
	if err != nil {
		dc.logger.WithError(err).Errorln("failed to list files for patient:", pid)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"files": files,
	})
}

// HandleSaveFile writes one document into a patient's folder, replacing any
// previous version.
func (dc *DocumentController) HandleSaveFile(c *fiber.Ctx) error {
	req := new(saveFileReq)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if req.Pid == "" || req.FileName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "pid and file_name are required",
		})
	}

	path, err := dc.DocumentModel.SavePatientFile(c.UserContext(), req.Pid, req.FileName, []byte(req.Content))
	if err != nil {
		dc.logger.WithError(err).Errorln("failed to save file for patient:", req.Pid)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "File saved successfully",
		"path":    path,
	})
}

// HandleDeleteFile removes one document from a patient's folder.
func (dc *DocumentController) HandleDeleteFile(c *fiber.Ctx) error {
	pid := c.Query("pid")
	fileName := c.Query("file_name")
	if pid == "" || fileName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "pid and file_name are required",
		})
	}

	err := dc.DocumentModel.DeletePatientFile(c.UserContext(), pid, fileName)
	switch {
	case errors.Is(err, models.ErrDocumentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "File not found",
		})
	case err != nil:
		dc.logger.WithError(err).Errorln("failed to delete file for patient:", pid)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "File deleted successfully",
	})
}

// HandleListPatients lists the patient folders that currently exist.
func (dc *DocumentController) HandleListPatients(c *fiber.Ctx) error {
	patients, err := dc.PatientModel.ListPatients(c.UserContext())
	if err != nil {
		dc.logger.WithError(err).Errorln("failed to list patients")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"patients": patients,
	})
}

// HandleCreatePatient provisions a new patient folder with a seed profile
// file.
func (dc *DocumentController) HandleCreatePatient(c *fiber.Ctx) error {
	req := new(adminPatientReq)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if req.Pid == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "pid is required",
		})
	}

	err := dc.PatientModel.CreatePatient(c.UserContext(), req.Pid)
	switch {
	case errors.Is(err, models.ErrPatientExists):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Patient already exists",
		})
	case err != nil:
		dc.logger.WithError(err).Errorln("failed to create patient:", req.Pid)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Patient created",
		"pid":     req.Pid,
	})
}

// HandleDeletePatient removes a patient folder with everything in it.
func (dc *DocumentController) HandleDeletePatient(c *fiber.Ctx) error {
	pid := c.Query("pid")
	if pid == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "pid is required",
		})
	}

	deleted, err := dc.PatientModel.DeletePatient(c.UserContext(), pid)
	switch {
	case errors.Is(err, models.ErrPatientNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Patient not found",
		})
	case err != nil:
		dc.logger.WithError(err).Errorln("failed to delete patient:", pid)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Deleted %d files for patient %s", deleted, pid),
	})
}
