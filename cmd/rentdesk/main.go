package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/relabs-tech/rentdesk/core/access"
	"github.com/relabs-tech/rentdesk/core/backend"
	"github.com/relabs-tech/rentdesk/core/csql"
	"github.com/relabs-tech/rentdesk/core/logger"
	"github.com/relabs-tech/rentdesk/core/tree"
)

// Service holds the configuration for this service
//
// use POSTGRES="host=localhost port=5432 user=postgres dbname=postgres sslmode=disable password=docker"
// together with RENTDESK_TREE_DRIVER=postgres
type Service struct {
	TreeDriver     string `env:"RENTDESK_TREE_DRIVER,default=memory" description:"document tree driver: memory, filesystem, postgres, redis or s3"`
	Postgres       string `env:"POSTGRES,optional" description:"the connection string for the Postgres DB"`
	PostgresSchema string `env:"POSTGRES_SCHEMA,default=rentdesk" description:"the schema holding the tree table"`
	RedisAddr      string `env:"REDIS_ADDR,optional" description:"address of the redis server, host:port"`
	RedisPassword  string `env:"REDIS_PASSWORD,optional" description:"password of the redis server"`
	RedisNamespace string `env:"REDIS_NAMESPACE,default=rentdesk" description:"prefix of all redis keys"`
	S3AccessID     string `env:"S3_ACCESS_ID,optional" description:"AWS access id, the default credential chain is used if empty"`
	S3AccessKey    string `env:"S3_ACCESS_KEY,optional" description:"AWS access key"`
	S3Bucket       string `env:"S3_BUCKET,optional" description:"AWS S3 bucket name"`
	S3Region       string `env:"S3_REGION,default=ap-southeast-1" description:"AWS region of the bucket"`
	S3KeyPrefix    string `env:"S3_KEY_PREFIX,optional" description:"prefix of all object keys"`
	FSBasePath     string `env:"FS_BASE_PATH,default=./data" description:"base folder of the filesystem driver"`
	JwtSecret      string `env:"JWT_SECRET,optional" description:"HS256 secret for bearer tokens. If empty, the user id header is trusted"`
	JwtIssuer      string `env:"JWT_ISSUER,optional" description:"accepted token issuer"`
	IDLock         string `env:"ID_LOCK,default=none" description:"id generation lock: none, local or redis"`
	Port           int    `env:"PORT,default=3000" description:"listen port"`
	LogLevel       string `env:"LOG_LEVEL,default=info" description:"logrus log level"`
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	service := &Service{}
	if err := envdecode.Decode(service); err != nil {
		panic(err)
	}
	service.TreeDriver = strings.ToLower(service.TreeDriver)
	logger.InitLogger(logger.ParseLevel(service.LogLevel))
	rlog := logger.Default()

	lockerType, err := backend.ParseLockerType(service.IDLock)
	if err != nil {
		rlog.WithError(err).Fatal("invalid ID_LOCK")
	}

	var rdb *redis.Client
	if service.TreeDriver == "redis" || lockerType == backend.LockerRedis {
		if service.RedisAddr == "" {
			rlog.Fatal("REDIS_ADDR is required")
		}
		rdb = redis.NewClient(&redis.Options{Addr: service.RedisAddr, Password: service.RedisPassword})
		defer rdb.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			rlog.WithError(err).Fatal("cannot reach redis")
		}
	}

	driver, closer, err := service.driver(rdb)
	if err != nil {
		rlog.WithError(err).Fatalf("cannot open %s tree driver", service.TreeDriver)
	}
	defer closer()

	var locker backend.Locker
	switch lockerType {
	case backend.LockerLocal:
		locker = backend.NewLocalLocker()
	case backend.LockerRedis:
		locker = backend.NewRedisLocker(rdb, service.RedisNamespace, 10*time.Second)
	}

	router := mux.NewRouter()
	logger.AddRequestID(router)
	if service.JwtSecret != "" {
		router.Use(access.NewJwtMiddelware(&access.JwtMiddlewareBuilder{
			Secret: []byte(service.JwtSecret),
			Issuer: service.JwtIssuer,
		}))
	} else {
		rlog.Warnln("JWT_SECRET not set, trusting", access.UserIDHeader, "header")
		router.Use(access.NewHeaderMiddleware())
	}

	backend.New(&backend.Builder{
		Tree:   tree.New(driver),
		Router: router,
		Locker: locker,
	})

	address := fmt.Sprintf(":%d", service.Port)
	rlog.Infoln("listen on port", address)
	server := &http.Server{
		Addr:              address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		rlog.WithError(err).Fatal("server stopped")
	}
}

// driver opens the configured tree driver. The returned function releases
// the resources of the driver.
func (s *Service) driver(rdb *redis.Client) (tree.Driver, func(), error) {
	noop := func() {}
	switch s.TreeDriver {
	case "", "memory":
		logger.Default().Warnln("memory tree driver, data is lost on exit")
		return tree.NewMemory(), noop, nil
	case "filesystem":
		d, err := tree.NewLocalFilesystem(s.FSBasePath)
		return d, noop, err
	case "postgres":
		if s.Postgres == "" {
			return nil, nil, fmt.Errorf("POSTGRES is required")
		}
		db, err := csql.OpenWithSchema(s.Postgres, s.PostgresSchema)
		if err != nil {
			return nil, nil, err
		}
		d, err := tree.NewPostgres(db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return d, func() { db.Close() }, nil
	case "redis":
		return tree.NewRedis(rdb, s.RedisNamespace), noop, nil
	case "s3":
		d, err := tree.NewS3(context.Background(), tree.S3Configuration{
			AccessID:      s.S3AccessID,
			AccessKey:     s.S3AccessKey,
			AWSBucketName: s.S3Bucket,
			AWSRegion:     s.S3Region,
			KeyPrefix:     s.S3KeyPrefix,
		})
		return d, noop, err
	}
	return nil, nil, fmt.Errorf("unknown tree driver '%s'", s.TreeDriver)
}
