// Package s3 provides an S3 implementation of the blobstore.Store interface
// for serving and publishing scene packs.
//
// # Usage
//
//	store := s3.NewStore(client, "my-bucket", s3.WithPrefix("scenes/"))
//
//	scene, err := attnlens.Load(ctx, store, "scene-0061/manifest.json")
//
// # Features
//
//   - Range reads so quantized payloads and scale side-cars fetch partially
//   - Multipart streaming uploads for large fp32 payloads
//   - CRC32C checksums on uploads
//   - CatalogStore adds atomic catalog publication via DynamoDB
package s3
