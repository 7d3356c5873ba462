package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/courspresso/courspresso-web/internal/models"
	"github.com/courspresso/courspresso-web/internal/utils"
)

type AdminAPI interface {
	ListCourses(ctx context.Context, page, size int) ([]models.Course, error)
	SearchCourses(ctx context.Context, query string, page, size int) ([]models.Course, error)
	AdminCreateCourse(ctx context.Context, nc models.NewCourse) (*models.Course, error)
	AdminDeleteCourse(ctx context.Context, id string) error
	AdminDashboard(ctx context.Context) (*models.AdminStats, error)
	AdminListUsers(ctx context.Context) ([]models.AdminUser, error)
	AdminDeleteUser(ctx context.Context, username string) error
}

type Admin struct {
	api    AdminAPI
	images utils.ImageStorage
	log    *zap.Logger
}

func NewAdmin(api AdminAPI, images utils.ImageStorage, log *zap.Logger) *Admin {
	return &Admin{api: api, images: images, log: log}
}

// Overview is the admin page. Each section loads independently; a failing
// section carries its own error.
type Overview struct {
	Stats      *models.AdminStats
	Courses    []models.Course
	Users      []models.AdminUser
	StatsErr   error
	CoursesErr error
	UsersErr   error
}

func (a *Admin) Overview(ctx context.Context, query string) *Overview {
	var o Overview
	var g errgroup.Group
	g.Go(func() error {
		o.Stats, o.StatsErr = a.api.AdminDashboard(ctx)
		return nil
	})
	g.Go(func() error {
		if q := strings.TrimSpace(query); q != "" {
			o.Courses, o.CoursesErr = a.api.SearchCourses(ctx, q, 0, 10)
		} else {
			o.Courses, o.CoursesErr = a.api.ListCourses(ctx, 0, 20)
		}
		return nil
	})
	g.Go(func() error {
		o.Users, o.UsersErr = a.api.AdminListUsers(ctx)
		return nil
	})
	_ = g.Wait()
	for _, err := range []error{o.StatsErr, o.CoursesErr, o.UsersErr} {
		if err != nil {
			a.log.Warn("admin overview section failed", zap.Error(err))
		}
	}
	return &o
}

// imageTypes maps the accepted upload extensions to their content type.
var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

var ErrUnsupportedImage = fmt.Errorf("%w: image must be a JPEG, PNG, GIF or WebP file", utils.ErrValidation)

// checkImage accepts only image extensions whose sniffed content matches.
// The returned reader replays the sniffed bytes.
func checkImage(img *Image) (string, io.Reader, error) {
	want, ok := imageTypes[strings.ToLower(filepath.Ext(img.Filename))]
	if !ok {
		return "", nil, ErrUnsupportedImage
	}
	head := make([]byte, 512)
	n, err := io.ReadFull(img.Body, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", nil, err
	}
	head = head[:n]
	if http.DetectContentType(head) != want {
		return "", nil, ErrUnsupportedImage
	}
	return want, io.MultiReader(bytes.NewReader(head), img.Body), nil
}

// Image is an optional upload accompanying a new course.
type Image struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// CreateCourse uploads the image when given and uses its URL as imageUrl.
// The upload is removed again if the backend rejects the course.
func (a *Admin) CreateCourse(ctx context.Context, nc models.NewCourse, img *Image) (*models.Course, error) {
	nc.Title = strings.TrimSpace(nc.Title)
	nc.URL = strings.TrimSpace(nc.URL)
	if p, err := models.ParsePlatform(nc.Platform); err == nil {
		nc.Platform = p
	}
	var key string
	if img != nil && a.images != nil {
		contentType, body, err := checkImage(img)
		if err != nil {
			return nil, err
		}
		k, err := a.images.SaveFile(ctx, "course-images", img.Filename, contentType, body)
		if err != nil {
			return nil, err
		}
		key = k
		nc.ImageURL = a.images.PublicURL(k)
	}
	if err := utils.ValidateStruct(nc); err != nil {
		a.discard(ctx, key)
		return nil, err
	}
	c, err := a.api.AdminCreateCourse(ctx, nc)
	if err != nil {
		a.discard(ctx, key)
		return nil, err
	}
	return c, nil
}

func (a *Admin) discard(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := a.images.DeleteFile(ctx, key); err != nil {
		a.log.Warn("delete orphaned course image", zap.String("key", key), zap.Error(err))
	}
}

func (a *Admin) DeleteCourse(ctx context.Context, id string) error {
	return a.api.AdminDeleteCourse(ctx, id)
}

func (a *Admin) DeleteUser(ctx context.Context, username string) error {
	return a.api.AdminDeleteUser(ctx, strings.TrimSpace(username))
}
