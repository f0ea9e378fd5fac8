package routes

import (
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gin-gonic/gin"

	"parkspot-server/database"
	"parkspot-server/models"
)

// validateImageFile validates mimetype and size (<= 5MB)
func validateImageFile(h *multipart.FileHeader) bool {
	if h == nil || h.Size <= 0 || h.Size > 5*1024*1024 {
		return false
	}
	ext := strings.ToLower(filepath.Ext(h.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
		return true
	default:
		return false
	}
}

func newCloudinaryClient() (*cloudinary.Cloudinary, error) {
	cloudName := os.Getenv("CLOUDINARY_CLOUD_NAME")
	apiKey := os.Getenv("CLOUDINARY_API_KEY")
	apiSecret := os.Getenv("CLOUDINARY_API_SECRET")

	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("cloudinary environment variables not set")
	}

	cloudinaryURL := fmt.Sprintf("cloudinary://%s:%s@%s", apiKey, apiSecret, cloudName)
	return cloudinary.NewFromURL(cloudinaryURL)
}

// RegisterListingMediaRoutes adds photo upload endpoints under the host group
func RegisterListingMediaRoutes(rg *gin.RouterGroup) {
	rg.POST("/listings/:id/photos", func(c *gin.Context) {
		userID := c.GetUint("user_id")

		listingID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid listing ID"})
			return
		}

		var listing models.Listing
		if err := database.DB.First(&listing, listingID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Listing not found"})
			return
		}
		if listing.HostID != userID {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Not your listing"})
			return
		}

		// Multipart form
		if err := c.Request.ParseMultipartForm(10 << 20); err != nil { // 10MB
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid form data"})
			return
		}

		form := c.Request.MultipartForm
		headers := form.File["photos"]
		if len(headers) == 0 {
			if h, err := c.FormFile("photo"); err == nil && h != nil {
				headers = append(headers, h)
			}
		}

		log.Printf("📸 Received %d photo(s) for listing %d", len(headers), listing.ID)

		if len(headers) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No files provided"})
			return
		}
		if len(headers) > 6 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Too many photos (max 6)"})
			return
		}
		for _, h := range headers {
			if !validateImageFile(h) {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid photo: " + h.Filename})
				return
			}
		}

		cld, err := newCloudinaryClient()
		if err != nil {
			log.Printf("❌ Failed to initialize Cloudinary: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Cloudinary not configured"})
			return
		}

		ctx := context.Background()
		folder := "listings/" + strconv.Itoa(int(listing.ID))

		// Upload helper
		upload := func(header *multipart.FileHeader) (*uploader.UploadResult, error) {
			file, err := header.Open()
			if err != nil {
				return nil, err
			}
			defer file.Close()
			ow := true
			uf := true
			return cld.Upload.Upload(ctx, file, uploader.UploadParams{
				Folder:         folder,
				PublicID:       strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename)),
				Overwrite:      &ow,
				UniqueFilename: &uf,
				ResourceType:   "image",
			})
		}

		var photos []models.ListingPhoto
		for _, h := range headers {
			log.Printf("📸 Uploading %s to folder: %s", h.Filename, folder)
			up, err := upload(h)
			if err != nil {
				log.Printf("❌ Photo upload failed: %v", err)
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Upload failed: " + h.Filename})
				return
			}
			photo := models.ListingPhoto{
				ListingID: listing.ID,
				URL:       up.SecureURL,
				PublicID:  up.PublicID,
			}
			if err := database.DB.Create(&photo).Error; err != nil {
				log.Printf("❌ Failed to save photo record: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to save photo"})
				return
			}
			log.Printf("✅ Photo uploaded successfully: %s", up.SecureURL)
			photos = append(photos, photo)
		}

		c.JSON(http.StatusCreated, gin.H{"success": true, "photos": photos})
	})

	rg.DELETE("/listings/:id/photos/:photoId", func(c *gin.Context) {
		userID := c.GetUint("user_id")

		listingID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid listing ID"})
			return
		}
		photoID, err := strconv.ParseUint(c.Param("photoId"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid photo ID"})
			return
		}

		var listing models.Listing
		if err := database.DB.First(&listing, listingID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Listing not found"})
			return
		}
		if listing.HostID != userID {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Not your listing"})
			return
		}

		var photo models.ListingPhoto
		if err := database.DB.Where("id = ? AND listing_id = ?", photoID, listing.ID).First(&photo).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Photo not found"})
			return
		}

		// Remove from Cloudinary first, then the record
		if photo.PublicID != "" {
			if cld, err := newCloudinaryClient(); err == nil {
				if _, err := cld.Upload.Destroy(context.Background(), uploader.DestroyParams{PublicID: photo.PublicID}); err != nil {
					log.Printf("⚠️ Failed to delete photo from Cloudinary: %v", err)
				}
			}
		}

		if err := database.DB.Delete(&photo).Error; err != nil {
			log.Printf("❌ Failed to delete photo record: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to delete photo"})
			return
		}

		log.Printf("🗑️ Photo %d removed from listing %d", photo.ID, listing.ID)
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Photo deleted"})
	})
}
