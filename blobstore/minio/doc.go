// Package minio provides a blobstore.Store implementation using the MinIO
// client, for serving scene packs from MinIO and other S3-compatible object
// stores (Ceph, SeaweedFS, Garage).
//
// # Basic Usage
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "scenes", "nuscenes/")
//	scene, err := attnlens.Load(ctx, store, "scene-0061/manifest.json")
//
// Useful for on-prem deployments where scene packs stay inside the lab
// network and no AWS credentials exist.
package minio
