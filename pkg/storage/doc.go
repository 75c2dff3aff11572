// Package storage puts uploaded files in an S3 compatible bucket and
// hands out URLs for reading them back.
//
// Wire a bucket into the app and upload through the request context:
//
//	store, err := storage.New(storage.Config{
//		Bucket:    "uploads",
//		AccessKey: os.Getenv("S3_ACCESS_KEY"),
//		SecretKey: os.Getenv("S3_SECRET_KEY"),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	app := loom.New(loom.WithStorage(store))
//
//	app.Post("/avatar", func(c loom.Context) error {
//		_, fh, err := c.FormFile("avatar")
//		if err != nil {
//			return err
//		}
//		obj, err := c.UploadFile(fh,
//			storage.WithPrefix("avatars"),
//			storage.WithRules(storage.Images(), storage.MaxSize(5<<20)),
//		)
//		if err != nil {
//			return err
//		}
//		url, err := c.FileURL(obj.Key, storage.SignedFor(time.Hour))
//		if err != nil {
//			return err
//		}
//		return c.Render(http.StatusOK, "avatar", url)
//	})
//
// Content types come from sniffing the file's leading bytes, so rules
// like Images cannot be fooled by a renamed file. Keys are generated
// as "{prefix}/{ulid}{ext}" unless WithKey names one.
//
// MinIO and other S3 clones work through Config.Endpoint with
// PathStyle set.
package storage
